package mcpserver

// TransformContract describes the transform operations and the predicate
// language accepted by transform_document.
const TransformContract = `# mdtree Transform Contract

A transform is a JSON array of operations applied in order to the Markdown
body of a document. YAML frontmatter is never touched.

## Operations

| type             | fields              | effect                                              |
|------------------|---------------------|-----------------------------------------------------|
| ` + "`upper`" + `          | lang (optional)     | uppercase every text node                           |
| ` + "`lower`" + `          | lang (optional)     | lowercase every text node                           |
| ` + "`title_headings`" + ` | lang (optional)     | title-case the text of every heading                |
| ` + "`prune_headings`" + ` | level (1-6)         | remove every heading of that level                  |
| ` + "`prune`" + `          | where (expression)  | remove every node the expression matches            |
| ` + "`append`" + `         | markdown            | parse the fragment and append its blocks            |

` + "`lang`" + ` is a BCP 47 tag such as ` + "`en`" + ` or ` + "`tr`" + `. It selects language-specific
case mappings.

## Expressions

` + "`where`" + ` is a boolean expression evaluated once per node. The node is visible
through these variables:

- ` + "`kind`" + `: one of document, block_quote, list, item, code_block, html_block,
  custom_block, paragraph, heading, thematic_break, text, softbreak, linebreak,
  code, html_inline, custom_inline, emph, strong, link, image
- ` + "`level`" + `: heading level, 0 for other kinds
- ` + "`content`" + `: literal content of text, code, code_block and html nodes
- ` + "`url`" + `, ` + "`title`" + `: destination and title of links and images
- ` + "`info`" + `: fence info string of code blocks
- ` + "`line`" + `, ` + "`column`" + `: 1-based start position, 0 when unknown

Examples:

` + "```" + `
kind == "heading" && level >= 3
kind == "link" && url startsWith "http://"
kind == "code_block" && info == "mermaid"
` + "```" + `

## Example call

` + "```" + `json
{
  "path": "notes/today.md",
  "ops": [
    {"type": "prune", "where": "kind == \"image\""},
    {"type": "title_headings", "lang": "en"}
  ],
  "write": false
}
` + "```" + `

Without ` + "`write`" + ` the result is a preview with a line diff. With ` + "`write`" + ` the
document is replaced; pass the checksum from read_document as ` + "`if_match`" + `
to avoid overwriting concurrent edits.
`
