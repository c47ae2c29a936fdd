package mcpserver

// NoteFormatContract describes the canonical Markdown note format that
// LLM consumers should follow when creating or updating notes.
const NoteFormatContract = `# Ansuz Note Format Contract

Every Markdown note stored in Ansuz SHOULD follow this structure.

## Structure

` + "```" + `markdown
# Human-readable title

Body text in standard Markdown.

Use [[wikilinks]] to reference other notes (without .md extension).
Use inline #tags for categorisation.
` + "```" + `

## Rules

1. **The first line is an H1 title.** New notes are created with ` + "`" + `# <name>` + "`" + ` already in place.
2. **Wikilinks** use double brackets: ` + "`" + `[[Other Note]]` + "`" + `. The target is the file
   name stem (no ` + "`" + `.md` + "`" + ` extension). Matching is case-insensitive.
3. **Tags** are a hash followed by a letter, then letters, digits, ` + "`" + `_` + "`" + ` or ` + "`" + `-` + "`" + `
   (e.g. ` + "`" + `#work` + "`" + `, ` + "`" + `#project-x` + "`" + `). A hash followed by a space is a heading, not a tag.
4. **Headings** use ` + "`" + `#` + "`" + ` through ` + "`" + `######` + "`" + ` followed by a space; anchors are derived
   by lowercasing, stripping punctuation, and replacing spaces with hyphens.
5. **File names** must not contain ` + "`" + `/` + "`" + `, ` + "`" + `\` + "`" + `, ` + "`" + `..` + "`" + `, leading dots, or the
   characters ` + "`" + `<>:"|?*` + "`" + `.
6. **Daily notes** live under ` + "`" + `Daily/YYYY-MM-DD.md` + "`" + ` with Tasks/Notes/Journal sections;
   use the open_daily_note tool instead of creating them by hand.
7. **Encoding** is UTF-8 with a trailing newline.

## Assets & Images

- Store files via the ` + "`" + `save_attachment` + "`" + ` tool; they land in the shared ` + "`" + `assets/` + "`" + ` folder.
- Colliding names are de-duplicated automatically (photo.png, photo-1.png, ...).
- Reference them in notes with the returned root-relative path:
  ` + "`" + `![description](assets/photo.png)` + "`" + `.
`
