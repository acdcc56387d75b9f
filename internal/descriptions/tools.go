package descriptions

// Comprehensive tool descriptions with practical examples and use cases

const (
	PDFAnalyzeFieldsDescription = `Detect, classify and reconcile the form fields in a PDF document.

**When to use:** Need the full field inventory of a fillable PDF before planning renames, building a mapping, or auditing a form.

**Why it's useful:** Runs several detection strategies in parallel and merges their results, so fields missed by one reader still show up. Each field is classified by type, normalized against shared prefixes, and grouped into inferred radio groups.

**Examples:**
• Pre-rename survey: "Analyze application-form.pdf to list every field before building a rename mapping"
• Radio group discovery: "Find which checkboxes in policy-form.pdf actually belong to one choice group"
• Accessibility check: "See which fields in legacy-form.pdf the rename engine can safely modify"

**Common workflows:**
1. Rename Planning: Analyze fields → Build mapping from old names → Validate names → Rename
2. Form Audit: Analyze fields → Review types and groups → Flag inconsistent naming
3. Migration: Analyze legacy form → Map fields to the naming convention → Apply renames

**Best practices:** Run this before pdf_rename_fields; only fields reported as accessible are guaranteed renameable.`

	PDFRenameFieldsDescription = `Rename form fields in a PDF using an old-name to new-name mapping while preserving field properties.

**When to use:** Standardizing field names across a set of forms, or applying the naming convention to a legacy document.

**Why it's useful:** Each rename snapshots the field's properties first and restores them afterwards, so values, flags and appearance survive the rename. Failures are isolated per field and reported without corrupting the document.

**Examples:**
• Convention cleanup: "Rename OWNER.FIRST_NAME to owner-information_first-name in application.pdf"
• Batch standardization: "Apply the saved mapping file to every form in /forms/"
• Safe in-place edit: "Rename fields in contract.pdf in place with a timestamped backup"

**Common workflows:**
1. Standard Rename: Analyze fields → Build mapping → Rename with validation → Verify output
2. Forgiving Rename: Disable validation → Rename what matches → Review per-field errors
3. In-place Update: Enable backup → Rename in place → Keep backup until verified

**Best practices:** Leave validate_mappings on so a bad mapping aborts before anything is modified; the result reports field counts before and after as a consistency check.`

	PDFValidateNamesDescription = `Check candidate field names against the lowercase block_element__modifier naming convention.

**When to use:** Before renaming, to confirm every target name in a mapping is well formed.

**Why it's useful:** Catches uppercase letters, reserved words, and malformed shapes up front, with a per-name verdict instead of a single pass/fail.

**Examples:**
• Mapping review: "Validate all target names in renames.json before applying them"
• Convention teaching: "Check why OWNER_FIRST_NAME is rejected and what shape is expected"
• Group naming: "Confirm dividend-option_cash--group is a legal radio group container name"

**Common workflows:**
1. Pre-flight Check: Validate names → Fix rejected names → Rename with confidence
2. Convention Linting: Validate existing field names → Report violations → Plan cleanup

**Best practices:** Names use lowercase blocks and elements joined by single underscores, double underscores before modifiers, and --group only on radio group containers.`

	PDFValidateFileDescription = `Verify PDF file integrity and readability before processing.

**When to use:** Before attempting to analyze or rename any PDF file, especially in automated workflows or when handling user uploads.

**Why it's useful:** Prevents processing errors, identifies corrupted files early, and ensures compatibility with the detection and rename tools.

**Examples:**
• Batch processing safety: "Validate all PDFs in /forms/ before bulk renaming"
• Upload verification: "Check user-uploaded contract.pdf is valid before processing"
• Quality control: "Verify exported-form.pdf is readable before sending to client"

**Common workflows:**
1. Automated Processing: Validate → Process if valid → Handle errors gracefully
2. File Quality Check: Validate → Report issues → Fix or reject bad files

**Best practices:** Always run this first in automated workflows, essential for production systems handling unknown PDFs.`

	PDFServerInfoDescription = `Get server status, available tools, and usage guidance.

**When to use:** Starting work with the server, troubleshooting issues, or checking available functionality.

**Why it's useful:** Provides a complete overview of server capabilities and configuration, including the naming convention the rename tools enforce.

**Examples:**
• System check: "Verify the server is ready and all tools are available before batch processing"
• Capability discovery: "See all available tools and their parameters for a new project"

**Common workflows:**
1. Session Startup: Check server info → Verify capabilities → Plan processing approach
2. Debugging: Review server status → Check configuration → Verify tool availability

**Best practices:** Run at the start of sessions to learn the configured file size limit and naming rules.`
)

// ToolDescriptions maps tool names to their comprehensive descriptions
var ToolDescriptions = map[string]string{
	"pdf_analyze_fields": PDFAnalyzeFieldsDescription,
	"pdf_rename_fields":  PDFRenameFieldsDescription,
	"pdf_validate_names": PDFValidateNamesDescription,
	"pdf_validate_file":  PDFValidateFileDescription,
	"pdf_server_info":    PDFServerInfoDescription,
}

// GetToolDescription returns the comprehensive description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns a list of all available tool names
func GetAllToolNames() []string {
	var names []string
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	return names
}
