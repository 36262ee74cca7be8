// Package web holds the calculator's templates and static assets.
package web

import "embed"

// TemplatesFS embeds the page shell and one template per view.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the stylesheet and notification script.
//
//go:embed static/*
var StaticFS embed.FS
