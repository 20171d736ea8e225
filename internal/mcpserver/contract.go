package mcpserver

// NamingContract describes the filename grammar that LLM consumers should
// follow when proposing tags or renaming images.
const NamingContract = `# tagfile Naming Contract

Every image in the gallery folder carries its tags in its file name.

## Structure

` + "```" + `
<base> - [<tag>, <tag>, ...] - <counter><ext>
` + "```" + `

Example: ` + "`" + `beach trip - [sea, sunset] - 1000.jpg` + "`" + `

## Rules

1. **Delimiters are exact.** The tag list opens with ` + "`" + `" - ["` + "`" + ` and closes
   with ` + "`" + `"] - "` + "`" + `. Tags are separated by ` + "`" + `", "` + "`" + ` (comma and one space).
2. **Tags are sorted** in ascending byte order when a name is composed. Duplicates are
   kept as given; tag matching and counting ignore case.
3. **Tags must not contain** ` + "`" + `", "` + "`" + ` or ` + "`" + `"] - "` + "`" + `; such tags cannot round-trip.
4. **The base** is the text before ` + "`" + `" - ["` + "`" + `. Names without tags keep the text
   before the last ` + "`" + `" - "` + "`" + ` as their base.
5. **The counter** is the lowest free number in the configured range (default 1000 to
   9999). It only exists to keep names unique. Never pick it yourself: use
   ` + "`" + `preview_rename` + "`" + ` to see it and ` + "`" + `rename_file` + "`" + ` to apply it.
6. **The extension** is kept from the original file.
7. **Length limits:** full path up to 235 characters and file name up to 120 by default.
   Longer names are refused unless ` + "`" + `force` + "`" + ` is set.
8. A name is **conformant** when it has an extension, a non-empty base before
   ` + "`" + `" - ["` + "`" + ` and a ` + "`" + `"]"` + "`" + ` after it. Use ` + "`" + `list_untagged` + "`" + ` to find the rest.

## Workflow

1. ` + "`" + `list_untagged` + "`" + ` or ` + "`" + `parse_filename` + "`" + ` to inspect names.
2. ` + "`" + `list_tags` + "`" + ` to reuse existing vocabulary before inventing new tags.
3. ` + "`" + `compose_name` + "`" + ` then ` + "`" + `preview_rename` + "`" + `.
4. ` + "`" + `rename_file` + "`" + ` with the same current name and tags.
`
