package mcpserver

// SkillFormatContract describes the canonical SKILL.md format that
// LLM consumers should follow when authoring skills.
const SkillFormatContract = `# Skilldex Skill Format Contract

Every skill stored in the library MUST follow this structure.

## Layout

A skill is a directory containing a ` + "`" + `SKILL.md` + "`" + ` file plus any supporting
files (references, examples, assets). The directory path determines the
skill's category:

` + "```" + `
<category>/<skill-name>/SKILL.md            # e.g. domains/sre/SKILL.md
<category>/<subcategory>/<skill-name>/SKILL.md
` + "```" + `

Top-level categories: domains, languages, organizations, paradigms.

## SKILL.md structure

` + "```" + `markdown
---
name: skill-name                    # REQUIRED – unique identifier, kebab-case
description: One-line summary       # REQUIRED – used in search and catalogs
---

# Skill Title

Body text in standard Markdown describing the methodology, heuristics,
and conventions the skill encodes.
` + "```" + `

## Rules

1. **YAML frontmatter is mandatory.** The ` + "```" + `---` + "```" + ` fences must be the first
   thing in the file (no leading blank lines).
2. **` + "`" + `name` + "`" + ` and ` + "`" + `description` + "`" + ` fields are required.** Validation fails
   without them.
3. **Names** are lowercase, kebab-case (e.g. ` + "`" + `code-review` + "`" + `, ` + "`" + `unix-philosophy` + "`" + `).
4. **Relative links** between documents must resolve within the library.
   Broken links fail validation.
5. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
6. **Encoding** is UTF-8 with a trailing newline.
7. The ` + "`" + `skill-template` + "`" + ` directory is scaffolding and is excluded from
   the catalog.

## Example

` + "```" + `markdown
---
name: sre
description: Google SRE practices for error budgets and toil reduction
---

# Site Reliability Engineering

Treat operations as a software problem.

## Heuristics

- Define SLOs before optimizing anything.
- Spend the error budget; do not hoard it.
` + "```" + `
`
