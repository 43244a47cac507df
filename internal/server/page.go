package server

import _ "embed"

// indexPage is the single-page dashboard shipped to the browser. The page is
// a thin renderer: it subscribes over /ws and hands each view's figure specs
// to the charting library.
//
//go:embed index.html
var indexPage []byte
