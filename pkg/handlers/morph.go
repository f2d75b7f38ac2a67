// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/kraklabs/attachments/internal/errs"
	"github.com/kraklabs/attachments/pkg/attachment"
	"github.com/kraklabs/attachments/pkg/registry"
)

// extensionByContentType maps a sniffed MIME type to the canonical
// extension downstream loaders' Match predicates key on.
var extensionByContentType = map[string]string{
	"text/csv":         ".csv",
	"text/plain":       ".txt",
	"text/html":        ".html",
	"application/json": ".json",
	"image/png":        ".png",
	"image/jpeg":       ".jpg",
	"application/pdf":  ".pdf",
}

// morphHandler sniffs an HTTPResponse object's content-type and magic
// bytes, replacing path/obj with a canonical, extension-dispatchable form
// (§4.5). Dispatched by exact ObjectKind, since at this point obj is
// always the URL loader's Response variant.
var morphHandler = &registry.HandlerRecord{
	Kind:     registry.KindModify,
	Name:     "morph",
	Dispatch: registry.Exact(attachment.ObjectKindResponse),
	Modify: func(ctx context.Context, a *attachment.Attachment, params registry.Params) error {
		resp := a.Obj.Response
		if resp == nil {
			return errs.HandlerFailure("morph", errNilResponse{})
		}

		ct := strings.TrimSpace(strings.SplitN(resp.ContentType, ";", 2)[0])
		ext := extensionByContentType[ct]
		if ext == "" {
			ext = sniffExtension(resp.Body)
		}
		if ext == "" {
			ext = ".txt"
		}

		base := path.Base(resp.URL)
		if u, err := url.Parse(resp.URL); err == nil {
			base = path.Base(u.Path)
		}
		if base == ""|| base == "/" || base == "." {
			base = "download"
		}
		if path.Ext(base) == "" {
			base += ext
		}

		a.Metadata["detected_extension"] = ext
		a.Metadata["source_url"] = resp.URL
		a.Metadata["http_status"] = resp.StatusCode
		a.Path = base

		switch ext {
		case ".csv":
			r := csv.NewReader(strings.NewReader(string(resp.Body)))
			r.FieldsPerRecord = -1
			records, err := r.ReadAll()
			if err != nil || len(records) == 0 {
				a.Obj = attachment.Object{Kind: attachment.ObjectKindTable, Table: &attachment.Table{}}
				return nil
			}
			a.Obj = attachment.Object{Kind: attachment.ObjectKindTable, Table: &attachment.Table{
				Header: records[0], Rows: records[1:],
			}}
		case ".png", ".jpg", ".jpeg", ".gif", ".webp":
			a.Obj = attachment.Object{Kind: attachment.ObjectKindImage, Img: &attachment.RasterImage{
				Format: strings.TrimPrefix(ext, "."),
				Pixels: resp.Body,
			}}
		default:
			a.Obj = attachment.Object{Kind: attachment.ObjectKindText, Text: string(resp.Body)}
		}
		return nil
	},
}

// sniffExtension uses net/http's content-type sniffing over magic bytes
// when the server's declared Content-Type header was missing or unhelpful.
func sniffExtension(body []byte) string {
	ct := http.DetectContentType(body)
	ct = strings.SplitN(ct, ";", 2)[0]
	if ext, ok := extensionByContentType[ct]; ok {
		return ext
	}
	return ""
}

type errNilResponse struct{}

func (errNilResponse) Error() string { return "morph: attachment has no HTTP response object" }
