/*
Package query provides the filtering subsystem for a declarative data-table
and form library.

Applications declare a set of Variables (a schema) describing which fields of
a backend entity can be filtered, their kind, and the operators legal against
them. End users then filter records in one of two ways:

  - an advanced query: a single textual boolean expression, e.g.
    `name="alice" and (age>=21 or region:"south shore")`
  - a simple query: a set of per-field form values combined with AND, plus an
    optional freetext term disjoined across the variables marked freetext

A BoundQuery reads one of these two shapes out of a RequestValues, validates
it against the schema, and lowers it to a backend-agnostic Predicate tree.
The package never talks to a database directly; concrete adapters (see the
sql and memory subpackages) translate a Predicate into a native query.

Fields can be compared with the following operators: =, !=, :, !:, <, <=, >,
>=. The lexer also accepts =< and => as aliases for <= and >=.

Double quotes can be used to quote string literals; \" escapes a quote and
\\ escapes a backslash.

The : operator does a case-insensitive substring match unless the variable
is case sensitive, in which case the comparison is sensitive.

Comparisons combine with: and, or, not. Parentheses override precedence;
not binds tighter than and, which binds tighter than or.

Example: name="alice" and age > 11 and (region:"Boston" or region="south shore")
*/
package query
