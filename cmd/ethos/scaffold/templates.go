// Copyright 2026 © The Ethos Authors
// SPDX-License-Identifier: Apache-2.0

package scaffold

const configTemplate = `# {{.Name}} corpus configuration.
# Values can be overridden with ETHOS_ environment variables or
# 'ethos --set key=value'.

corpus:
  roots:
    - personas
  strict: false

lint:
  severity: {}
  disabled: []

catalog:
  path: .ethos/catalog.db

index:
  enabled: false
  qdrant_addr: localhost:6334
  collection: {{.Name}}-personas
  embedder: ollama
  embedder_base_url: http://localhost:11434
  embedder_model: nomic-embed-text

serve:
  addr: :7430
`

const gitignoreTemplate = `.ethos/catalog.db
*.bundle.md
`

const readmeTemplate = `# {{.Name}}

A persona corpus managed with ethos.

## Layout

- ` + "`personas/`" + ` holds one Markdown document per persona. Front matter
  carries the identity (name, description, tools, model); the body is
  the system prompt.
- ` + "`ethos.yaml`" + ` configures corpus roots, lint severities, the catalog
  and the optional vector index.

## Common commands

` + "```" + `
ethos list                 # table of personas
ethos lint                 # validate the corpus
ethos new specialist my-id # scaffold a persona document
ethos serve --watch        # HTTP API with live reload
` + "```" + `
`

const sampleReviewerTemplate = `---
name: code-reviewer
description: >-
  Use this agent to review code changes for correctness, style and security. <example>Context: The user finished a feature branch. user: "review my diff before I open the PR" assistant: "I'll use the code-reviewer agent to go through the changes."</example>
tools: Read, Grep, Bash(git:*)
model: sonnet
color: green
---

You are a careful code reviewer. Work through the diff hunk by hunk,
flag correctness problems first, then style. Cite file and line for
every finding and suggest a concrete fix.

## Delegation

| Trigger | Target |
|---------|--------|
| docs need updating after the fix | ` + "`doc-writer`" + ` |

## Output Format

- verdict: approve or request-changes
- findings: list of file:line with severity and fix
`

const sampleWriterTemplate = `---
name: doc-writer
description: >-
  Use this agent to write or update project documentation. <example>Context: A new module landed without docs. user: "document the new config package" assistant: "I'll use the doc-writer agent to draft the package docs."</example>
tools: Read, Write, Grep
model: haiku
---

You are a technical writer. Favor short sentences, concrete examples
and the vocabulary the codebase already uses. Never document behavior
you have not verified in the source.

## Output Format

- a Markdown document ready to commit
`

// Archetype templates for 'ethos new'. Each renders a complete,
// lint-clean persona document for the given id.
var archetypeTemplates = map[string]string{
	"specialist":  specialistTemplate,
	"reviewer":    reviewerTemplate,
	"coordinator": coordinatorTemplate,
	"minimal":     minimalTemplate,
}

const specialistTemplate = `---
name: {{.ID}}
description: >-
  Use this agent for {{title .ID}} tasks. <example>Context: Describe the situation that should trigger this persona. user: "example request" assistant: "I'll use the {{.ID}} agent for this."</example>
tools: Read, Grep
model: sonnet
---

You are {{title .ID}}, a focused specialist. State your findings with
file and line references and stop when the task is done.

## Output Format

- summary of what was done
- open questions, if any
`

const reviewerTemplate = `---
name: {{.ID}}
description: >-
  Use this agent to review work before it ships. <example>Context: A change is ready for review. user: "review this" assistant: "I'll use the {{.ID}} agent to check it."</example>
tools: Read, Grep, Bash(git:*)
model: sonnet
color: green
---

You are {{title .ID}}, a reviewer. Check correctness first, then
style. Every finding names the file and line it applies to.

## Delegation

| Trigger | Target |
|---------|--------|
| follow-up work outside review scope | ` + "`replace-with-target-id`" + ` |

## Output Format

- verdict: approve or request-changes
- findings: file:line, severity, suggested fix
`

const coordinatorTemplate = `---
name: {{.ID}}
description: >-
  Use this agent to route work to the right specialist. <example>Context: A task spans several areas. user: "plan and delegate this work" assistant: "I'll use the {{.ID}} agent to break it down."</example>
model: opus
---

You are {{title .ID}}, a coordinator. Break the task into independent
pieces, pick a target persona for each and explain the hand-off.

## Delegation

| Trigger | Target |
|---------|--------|
| code needs review | ` + "`code-reviewer`" + ` |
| documentation needed | ` + "`doc-writer`" + ` |

## Output Format

- plan: ordered list of steps with their target personas
`

const minimalTemplate = `---
name: {{.ID}}
description: >-
  Use this agent for {{title .ID}} tasks. <example>Context: Describe when to pick this persona. user: "example request" assistant: "I'll use the {{.ID}} agent."</example>
---

You are {{title .ID}}.
`
