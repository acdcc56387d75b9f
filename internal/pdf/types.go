package pdf

import (
	"github.com/wsekete/vpars3/internal/pdf/reconcile"
	"github.com/wsekete/vpars3/internal/pdf/rename"
)

// PDFAnalyzeFieldsRequest represents a request to analyze form fields
type PDFAnalyzeFieldsRequest struct {
	Path string `json:"path"`
}

// PDFAnalyzeFieldsResult represents the reconciled form field inventory
type PDFAnalyzeFieldsResult struct {
	Path            string                   `json:"path"`
	Fields          []*reconcile.FieldRecord `json:"fields"`
	Groups          []*reconcile.RadioGroup  `json:"groups,omitempty"`
	PrimaryStrategy string                   `json:"primary_strategy"`
	FieldCount      int                      `json:"field_count"`
	AccessibleCount int                      `json:"accessible_count"`
	Errors          []string                 `json:"errors,omitempty"`
	Warnings        []string                 `json:"warnings,omitempty"`
}

// PDFRenameFieldsRequest represents a request to rename form fields
type PDFRenameFieldsRequest struct {
	Path             string            `json:"path"`
	Mapping          map[string]string `json:"mapping"`
	OutputPath       string            `json:"output_path,omitempty"`
	ValidateMappings bool              `json:"validate_mappings"`
	PreserveOriginal bool              `json:"preserve_original"`
	CreateBackup     bool              `json:"create_backup"`
}

// PDFRenameFieldsResult is the structured outcome of a rename batch
type PDFRenameFieldsResult = rename.Result

// PDFRenameFieldsBatchRequest applies rename mappings across several documents
type PDFRenameFieldsBatchRequest struct {
	Documents []PDFRenameFieldsRequest `json:"documents"`
}

// PDFRenameFieldsBatchResult aggregates per-document rename outcomes
type PDFRenameFieldsBatchResult struct {
	Results       []*PDFRenameFieldsResult `json:"results"`
	DocumentCount int                      `json:"document_count"`
	SuccessCount  int                      `json:"success_count"`
}

// PDFValidateNamesRequest represents a request to check names against the
// target naming grammar
type PDFValidateNamesRequest struct {
	Names []string `json:"names"`
}

// NameValidation is the verdict for one candidate name
type NameValidation struct {
	Name  string `json:"name"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// PDFValidateNamesResult represents grammar validation results
type PDFValidateNamesResult struct {
	Results  []NameValidation `json:"results"`
	AllValid bool             `json:"all_valid"`
}

// PDFValidateFileRequest represents a request to validate a PDF file
type PDFValidateFileRequest struct {
	Path string `json:"path"`
}

// PDFValidateFileResult represents the result of PDF validation
type PDFValidateFileResult struct {
	Path    string `json:"path"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// PDFServerInfoRequest represents a request for server information
type PDFServerInfoRequest struct{}

// ToolInfo describes one available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}

// PDFServerInfoResult represents server information and usage guidance
type PDFServerInfoResult struct {
	ServerName     string     `json:"server_name"`
	Version        string     `json:"version"`
	MaxFileSize    int64      `json:"max_file_size"`
	AvailableTools []ToolInfo `json:"available_tools"`
	UsageGuidance  string     `json:"usage_guidance"`
}
