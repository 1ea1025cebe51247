// Copyright (c) HashiCorp, Inc.

// Package httpquery adapts an *http.Request to query.RequestValues, so a
// BoundQuery can be bound straight from an incoming HTTP request without
// the core query package importing net/http itself.
package httpquery

import (
	"mime"
	"net/http"
	"strings"
)

// maxMultipartMemory bounds the in-memory portion of a parsed multipart
// form; parts beyond this spill to temp files, matching net/http's own
// ParseMultipartForm default scale.
const maxMultipartMemory = 32 << 20 // 32 MiB

// Values wraps *http.Request as a query.RequestValues. The zero value is not
// usable; construct with New.
type Values struct {
	r *http.Request
}

// New wraps r. It does not parse the body eagerly — parsing happens lazily,
// once, the first time Body is called.
func New(r *http.Request) *Values {
	return &Values{r: r}
}

func (v *Values) Method() string {
	return strings.ToUpper(v.r.Method)
}

func (v *Values) Query(key string) []string {
	return v.r.URL.Query()[key]
}

// Body returns the form/multipart values submitted for key, parsing the
// request body on first use. A GET/HEAD request, or one with no body, has
// no form values and returns nil.
func (v *Values) Body(key string) []string {
	if err := v.ensureParsed(); err != nil {
		return nil
	}
	if v.r.MultipartForm != nil {
		if vs, ok := v.r.MultipartForm.Value[key]; ok {
			return vs
		}
	}
	if v.r.PostForm != nil {
		return v.r.PostForm[key]
	}
	return nil
}

func (v *Values) ensureParsed() error {
	if v.r.PostForm != nil || v.r.MultipartForm != nil {
		return nil
	}
	contentType := v.r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err == nil && mediaType == "multipart/form-data" {
		return v.r.ParseMultipartForm(maxMultipartMemory)
	}
	return v.r.ParseForm()
}
