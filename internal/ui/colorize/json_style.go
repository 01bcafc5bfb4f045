package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// ILPatchDark colors exported JSON with the listing palette.
var ILPatchDark = styles.Register(chroma.MustNewStyle("ilpatch-dark", chroma.StyleEntries{
	chroma.Text:       "#FFFFFF",
	chroma.Background: "bg:#1e1e1e",

	chroma.NameTag:         "#7C9C9D", // object keys in teal
	chroma.Keyword:         "#AF87FF",
	chroma.KeywordConstant: "#AF87FF", // true, false, null

	chroma.LiteralNumber:        "#FF5F87",
	chroma.LiteralNumberInteger: "#FF5F87",
	chroma.LiteralNumberFloat:   "#FF5F87",

	chroma.String:       "#EACD53", // golden (234, 205, 83)
	chroma.StringDouble: "#EACD53",

	chroma.Punctuation: "#FFFFFF",
}))
