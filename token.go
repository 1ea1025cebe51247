// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package query

import "fmt"

type tokenType int

const (
	unknownToken tokenType = iota
	errToken
	eofToken
	identToken
	stringToken
	numberToken
	dateToken
	dateTimeToken
	andToken
	orToken
	notToken
	nullToken
	equalToken
	notEqualToken
	containsToken
	notContainsToken
	lessThanToken
	lessThanOrEqualToken
	lessThanOrEqualAliasToken
	greaterThanToken
	greaterThanOrEqualToken
	greaterThanOrEqualAliasToken
	startLogicalExprToken
	endLogicalExprToken
)

var tokenTypeToString = map[tokenType]string{
	unknownToken:                 "Unknown",
	errToken:                     "Error",
	eofToken:                     "EOF",
	identToken:                   "Ident",
	stringToken:                  "String",
	numberToken:                  "Number",
	dateToken:                    "Date",
	dateTimeToken:                "DateTime",
	andToken:                     "And",
	orToken:                      "Or",
	notToken:                     "Not",
	nullToken:                    "Null",
	equalToken:                   "Equal",
	notEqualToken:                "NotEqual",
	containsToken:                "Contains",
	notContainsToken:             "NotContains",
	lessThanToken:                "LessThan",
	lessThanOrEqualToken:         "LessThanOrEqual",
	lessThanOrEqualAliasToken:    "LessThanOrEqualAlias",
	greaterThanToken:             "GreaterThan",
	greaterThanOrEqualToken:      "GreaterThanOrEqual",
	greaterThanOrEqualAliasToken: "GreaterThanOrEqualAlias",
	startLogicalExprToken:        "StartLogicalExpr",
	endLogicalExprToken:          "EndLogicalExpr",
}

// String implements fmt.Stringer for tokenType, primarily for diagnostics.
func (t tokenType) String() string {
	if s, ok := tokenTypeToString[t]; ok {
		return s
	}
	return tokenTypeToString[unknownToken]
}

// token is one lexical unit produced by the lexer, along with its byte
// offset in the source (used to report syntax error positions).
type token struct {
	Type  tokenType
	Value string
	Pos   int
}

func (t token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Type, t.Value, t.Pos)
}
