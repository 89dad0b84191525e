package web

import (
	"embed"
	"io/fs"
)

//go:embed all:templates
var templateFS embed.FS

//go:embed all:static
var staticFS embed.FS

// TemplateFS holds the page, layout and partial templates of the portal and the back office.
var TemplateFS fs.FS = templateFS

// StaticFS holds the stylesheets and scripts served under /static/.
var StaticFS fs.FS = staticFS
