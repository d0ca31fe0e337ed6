package appfs

import "embed"

// FS embeds non-code assets needed at runtime.
//
//go:embed migrations
var FS embed.FS
