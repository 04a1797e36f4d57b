package httpapi

import "embed"

const webDir = "web"

//go:embed web
var webAssets embed.FS

//go:embed web/index.html
var indexHTML []byte
