package pdf

import (
	"context"
	"fmt"
	"time"

	"github.com/wsekete/vpars3/internal/descriptions"
	"github.com/wsekete/vpars3/internal/pdf/access"
	"github.com/wsekete/vpars3/internal/pdf/detect"
	"github.com/wsekete/vpars3/internal/pdf/reconcile"
	"github.com/wsekete/vpars3/internal/pdf/rename"
)

// Service orchestrates the form field pipeline: detection, reconciliation
// and renaming against one document at a time.
type Service struct {
	maxFileSize int64
	validator   *Validator
	detector    *detect.Detector
	reconciler  *reconcile.Reconciler
	engine      *rename.Engine
}

// NewService creates a new form field service with all components
func NewService(maxFileSize int64, configuredDirectory, outputSuffix string) *Service {
	engine := rename.NewEngine(access.Open)
	engine.SetOutputSuffix(outputSuffix)

	return &Service{
		maxFileSize: maxFileSize,
		validator:   NewValidator(maxFileSize, configuredDirectory),
		detector:    detect.NewDetector(),
		reconciler:  reconcile.NewReconciler(),
		engine:      engine,
	}
}

// PDFAnalyzeFields runs every detection strategy against the document and
// returns the reconciled field inventory with inferred radio groups.
func (s *Service) PDFAnalyzeFields(ctx context.Context, req PDFAnalyzeFieldsRequest) (*PDFAnalyzeFieldsResult, error) {
	if err := s.validator.validatePDFFile(req.Path); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	detection, err := s.detector.Detect(ctx, req.Path)
	if err != nil {
		return nil, fmt.Errorf("field detection failed: %w", err)
	}

	records := s.reconciler.BuildRecords(detection, s.detector.Primary())
	s.enrichRecords(req.Path, records)
	groups := s.reconciler.InferRadioGroups(records)

	result := &PDFAnalyzeFieldsResult{
		Path:            req.Path,
		Fields:          records,
		Groups:          groups,
		PrimaryStrategy: s.detector.Primary(),
		FieldCount:      len(records),
		Warnings:        detection.Warnings,
	}
	for _, record := range records {
		if record.Accessible {
			result.AccessibleCount++
		}
	}
	for _, strategyErr := range detection.Errors {
		result.Errors = append(result.Errors, strategyErr.Error())
	}
	return result, nil
}

// enrichRecords attaches geometry and label text to accessible records so
// the position and label grouping signals have something to work with.
// Documents without a reachable form dictionary are left bare.
func (s *Service) enrichRecords(path string, records []*reconcile.FieldRecord) {
	fa, err := access.Open(path)
	if err != nil {
		return
	}
	defer fa.Close()

	for _, record := range records {
		if !fa.HasField(record.Name) {
			continue
		}
		if value, ok, err := fa.ReadProperty(record.Name, access.PropRect); err == nil && ok {
			if rect, isRect := value.(access.Rect); isRect {
				record.Rect = &rect
			}
		}
		if value, ok, err := fa.ReadProperty(record.Name, access.PropPage); err == nil && ok {
			if page, isInt := value.(int); isInt {
				record.Page = page
			}
		}
		if value, ok, err := fa.ReadProperty(record.Name, access.PropTooltip); err == nil && ok {
			if label, isString := value.(string); isString {
				record.Label = label
			}
		}
	}
}

// PDFRenameFields validates and applies a rename mapping. The mapping is
// gated on the accessibility computed from a fresh analysis of the source.
func (s *Service) PDFRenameFields(ctx context.Context, req PDFRenameFieldsRequest) (*PDFRenameFieldsResult, error) {
	if err := s.validator.validatePDFFile(req.Path); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if req.OutputPath != "" {
		if err := s.validator.ValidatePath(req.OutputPath); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}
	}
	if len(req.Mapping) == 0 {
		return nil, fmt.Errorf("rename mapping is empty")
	}

	var accessible []string
	if req.ValidateMappings {
		analysis, err := s.PDFAnalyzeFields(ctx, PDFAnalyzeFieldsRequest{Path: req.Path})
		if err != nil {
			return nil, err
		}
		for _, record := range analysis.Fields {
			if record.Accessible {
				accessible = append(accessible, record.Name)
			}
		}
	}

	return s.engine.Rename(ctx, rename.Request{
		SourcePath:       req.Path,
		OutputPath:       req.OutputPath,
		Mapping:          rename.MappingFromMap(req.Mapping),
		AccessibleFields: accessible,
		ValidateMappings: req.ValidateMappings,
		PreserveOriginal: req.PreserveOriginal,
		CreateBackup:     req.CreateBackup,
	})
}

// PDFRenameFieldsBatch applies rename mappings across several documents.
// Documents process sequentially and independently: one document's failure
// lands in its own result slot and the batch moves on to the next document.
func (s *Service) PDFRenameFieldsBatch(ctx context.Context, req PDFRenameFieldsBatchRequest) (*PDFRenameFieldsBatchResult, error) {
	if len(req.Documents) == 0 {
		return nil, fmt.Errorf("batch contains no documents")
	}

	batch := &PDFRenameFieldsBatchResult{DocumentCount: len(req.Documents)}
	for _, docReq := range req.Documents {
		if err := ctx.Err(); err != nil {
			batch.Results = append(batch.Results, &PDFRenameFieldsResult{
				OriginalRef: docReq.Path,
				Timestamp:   time.Now(),
				Errors:      []string{fmt.Sprintf("batch cancelled before %q: %v", docReq.Path, err)},
			})
			continue
		}
		result, err := s.PDFRenameFields(ctx, docReq)
		if err != nil {
			result = &PDFRenameFieldsResult{
				OriginalRef: docReq.Path,
				Timestamp:   time.Now(),
				Errors:      []string{err.Error()},
			}
		}
		batch.Results = append(batch.Results, result)
		if result.Success {
			batch.SuccessCount++
		}
	}
	return batch, nil
}

// PDFValidateNames checks candidate names against the target naming grammar
func (s *Service) PDFValidateNames(req PDFValidateNamesRequest) (*PDFValidateNamesResult, error) {
	result := &PDFValidateNamesResult{AllValid: true}
	for _, name := range req.Names {
		verdict := NameValidation{Name: name, Valid: true}
		if err := rename.ValidateName(name); err != nil {
			verdict.Valid = false
			verdict.Error = err.Error()
			result.AllValid = false
		}
		result.Results = append(result.Results, verdict)
	}
	return result, nil
}

// PDFValidateFile performs validation on a PDF file
func (s *Service) PDFValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	if err := s.validator.ValidatePath(req.Path); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return s.validator.ValidateFile(req)
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// IsValidPDF performs a quick validation check on a file
func (s *Service) IsValidPDF(filePath string) bool {
	return s.validator.IsValidPDF(filePath)
}

// PDFServerInfo returns server information and usage guidance
func (s *Service) PDFServerInfo(_ PDFServerInfoRequest, serverName, version string) (*PDFServerInfoResult, error) {
	availableTools := []ToolInfo{
		{
			Name:        "pdf_analyze_fields",
			Description: descriptions.GetToolDescription("pdf_analyze_fields"),
			Usage: "Use this tool to inventory the form fields of a PDF before renaming. " +
				"Reports each field's type, provenance, radio group and whether it can be renamed.",
			Parameters: "path (required): Full absolute path to the PDF file",
		},
		{
			Name:        "pdf_rename_fields",
			Description: descriptions.GetToolDescription("pdf_rename_fields"),
			Usage: "Use this tool to apply a rename mapping. New names must follow the " +
				"block_element__modifier naming convention. Validation runs before any mutation.",
			Parameters: "path (required), mapping (required): object of old to new names, " +
				"output_path (optional), validate_mappings, preserve_original, create_backup (optional booleans)",
		},
		{
			Name:        "pdf_validate_names",
			Description: descriptions.GetToolDescription("pdf_validate_names"),
			Usage:       "Use this tool to vet new names before building a rename mapping.",
			Parameters:  "names (required): list of candidate field names",
		},
		{
			Name:        "pdf_validate_file",
			Description: descriptions.GetToolDescription("pdf_validate_file"),
			Usage:       "Use this tool to check if a file is a valid PDF before analyzing it.",
			Parameters:  "path (required): Full absolute path to the PDF file",
		},
		{
			Name:        "pdf_server_info",
			Description: descriptions.GetToolDescription("pdf_server_info"),
			Usage:       "Use this tool to get server capabilities and usage guidance.",
			Parameters:  "None",
		},
	}

	usageGuidance := `PDF Field Rename Server Usage Guide:

1. VALIDATE FILES:
   - Use 'pdf_validate_file' to check a file is a readable PDF

2. ANALYZE FIELDS:
   - Use 'pdf_analyze_fields' to inventory the document's form fields
   - Only fields flagged 'accessible' can be renamed
   - Inferred radio groups show which option fields belong together

3. BUILD A MAPPING:
   - New names follow the convention: block, block_element,
     block_element__modifier, block--group or block_element--group
   - Segments are lowercase; reserved words like 'name' or 'type' are rejected
   - Use 'pdf_validate_names' to vet candidates

4. RENAME:
   - Use 'pdf_rename_fields' with the mapping
   - Set 'preserve_original' to write a modified copy instead of mutating in place
   - A result with a non-empty 'errors' list means at least one field failed;
     'modifications' lists the fields that did rename

IMPORTANT NOTES:
- Always use absolute file paths
- The server can handle files up to ` + fmt.Sprintf("%d", s.maxFileSize/(1024*1024)) + `MB
- Field properties (flags, max length, tooltips) are preserved across renames`

	return &PDFServerInfoResult{
		ServerName:     serverName,
		Version:        version,
		MaxFileSize:    s.maxFileSize,
		AvailableTools: availableTools,
		UsageGuidance:  usageGuidance,
	}, nil
}

// ValidateConfiguration validates the service configuration
func (s *Service) ValidateConfiguration() error {
	if s.maxFileSize <= 0 {
		return fmt.Errorf("maxFileSize must be greater than 0")
	}

	if s.maxFileSize > 1024*1024*1024 { // 1GB limit
		return fmt.Errorf("maxFileSize cannot exceed 1GB")
	}

	return nil
}
