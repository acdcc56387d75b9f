package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wsekete/vpars3/internal/pdf"
)

var (
	mappingArg   = flag.String("mapping", "", "Rename mapping: inline JSON object or path to a JSON file")
	outputPath   = flag.String("output", "", "Where to write the modified PDF (derived from the source path if empty)")
	outputFormat = flag.String("format", "text", "Output format: text, json")
	noValidate   = flag.Bool("no-validate", false, "Skip upfront mapping validation, rename fields independently")
	inPlace      = flag.Bool("in-place", false, "Rename fields in the source file instead of writing a copy")
	createBackup = flag.Bool("backup", false, "Keep a timestamped backup before an in-place rename")
	maxFileSize  = flag.Int64("maxfilesize", 100*1024*1024, "Maximum PDF file size in bytes")
	verbose      = flag.Bool("verbose", false, "Enable verbose output")
	help         = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: PDF file path required\n\n")
		printUsage()
		os.Exit(1)
	}

	pdfPath := flag.Arg(0)
	if _, err := os.Stat(pdfPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: File not found: %s\n", pdfPath)
		os.Exit(1)
	}

	absPath, err := filepath.Abs(pdfPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	service := pdf.NewService(*maxFileSize, "", "_renamed")
	ctx := context.Background()

	// Without a mapping the tool analyzes; with one it renames.
	if *mappingArg == "" {
		if err := runAnalyze(ctx, service, absPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error analyzing fields: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runRename(ctx, service, absPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error renaming fields: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("PDF Rename Fields - Detect, analyze and rename form fields in PDF documents")
	fmt.Println()
	fmt.Println("Without a mapping the tool reports every detected form field, its inferred")
	fmt.Println("type, normalized name and radio group membership. With -mapping it renames")
	fmt.Println("the listed fields while preserving their properties.")
	fmt.Println()
	printUsage()
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -mapping       Inline JSON object or path to a JSON file mapping old names to new names")
	fmt.Println("  -output        Where to write the modified PDF (default: source path + _renamed)")
	fmt.Println("  -format        Output format: text (default), json")
	fmt.Println("  -no-validate   Skip upfront mapping validation, rename fields independently")
	fmt.Println("  -in-place      Rename fields in the source file instead of writing a copy")
	fmt.Println("  -backup        Keep a timestamped backup before an in-place rename")
	fmt.Println("  -maxfilesize   Maximum PDF file size in bytes")
	fmt.Println("  -verbose       Enable verbose output")
	fmt.Println("  -help          Show this help message")
	fmt.Println()
	fmt.Println("NAMING CONVENTION:")
	fmt.Println("  Target names must be lowercase block, block_element or block_element__modifier,")
	fmt.Println("  with --group reserved for radio group containers. Hyphens join compound words:")
	fmt.Println("  owner-information_first-name, dividend-option_cash--group")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  pdf-rename-fields form.pdf")
	fmt.Println("  pdf-rename-fields -format json form.pdf")
	fmt.Println("  pdf-rename-fields -mapping '{\"OWNER.FIRST_NAME\":\"owner-information_first-name\"}' form.pdf")
	fmt.Println("  pdf-rename-fields -mapping renames.json -output clean.pdf form.pdf")
	fmt.Println("  pdf-rename-fields -mapping renames.json -in-place -backup form.pdf")
}

func printUsage() {
	fmt.Println("USAGE:")
	fmt.Println("  pdf-rename-fields [OPTIONS] <pdf_file>")
}

func runAnalyze(ctx context.Context, service *pdf.Service, path string) error {
	if *verbose {
		fmt.Printf("🔍 Analyzing PDF: %s\n\n", path)
	}

	result, err := service.PDFAnalyzeFields(ctx, pdf.PDFAnalyzeFieldsRequest{Path: path})
	if err != nil {
		return err
	}

	if *outputFormat == "json" {
		return outputJSON(result)
	}
	return outputAnalyzeText(result)
}

func runRename(ctx context.Context, service *pdf.Service, path string) error {
	mapping, err := loadMapping(*mappingArg)
	if err != nil {
		return err
	}

	if *verbose {
		fmt.Printf("🔧 Renaming %d field(s) in: %s\n\n", len(mapping), path)
	}

	result, err := service.PDFRenameFields(ctx, pdf.PDFRenameFieldsRequest{
		Path:             path,
		Mapping:          mapping,
		OutputPath:       *outputPath,
		ValidateMappings: !*noValidate,
		PreserveOriginal: !*inPlace,
		CreateBackup:     *createBackup,
	})
	if err != nil {
		return err
	}

	if *outputFormat == "json" {
		return outputJSON(result)
	}
	return outputRenameText(result)
}

// loadMapping accepts either inline JSON or a path to a JSON file.
func loadMapping(arg string) (map[string]string, error) {
	data := []byte(arg)
	if !strings.HasPrefix(strings.TrimSpace(arg), "{") {
		fileData, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read mapping file: %w", err)
		}
		data = fileData
	}

	var mapping map[string]string
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("failed to parse mapping JSON: %w", err)
	}
	if len(mapping) == 0 {
		return nil, fmt.Errorf("mapping is empty")
	}
	return mapping, nil
}

func outputJSON(result interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputAnalyzeText(result *pdf.PDFAnalyzeFieldsResult) error {
	if result.FieldCount == 0 {
		fmt.Println("⚠️  No form fields detected in the PDF")
		fmt.Println()
		fmt.Println("SUGGESTIONS:")
		fmt.Println("• This PDF may not contain interactive forms")
		fmt.Println("• Forms might be stored as non-standard annotations")
		fmt.Println("• The PDF might be scanned/image-based with visual form elements only")
		return nil
	}

	fmt.Printf("✅ Found %d form fields (%d accessible for renaming)\n", result.FieldCount, result.AccessibleCount)
	fmt.Printf("📊 Primary detection strategy: %s\n", result.PrimaryStrategy)
	fmt.Println()

	for i, field := range result.Fields {
		fmt.Printf("[%d] %s\n", i+1, field.Name)
		fmt.Printf("    Type: %s\n", field.Type)
		if field.Prefix != "" {
			fmt.Printf("    Normalized: %s (prefix %s)\n", field.NormalizedName, field.Prefix)
		}
		fmt.Printf("    Accessible: %t\n", field.Accessible)
		fmt.Printf("    Detected by: %s\n", strings.Join(field.Sources, ", "))
		if field.GroupID != "" {
			fmt.Printf("    Group: %s\n", field.GroupID)
		}
		if field.Page > 0 {
			fmt.Printf("    Page: %d\n", field.Page)
		}
		if field.Rect != nil {
			fmt.Printf("    Position: (%.1f, %.1f) to (%.1f, %.1f)\n",
				field.Rect.LLX, field.Rect.LLY, field.Rect.URX, field.Rect.URY)
		}
		fmt.Println()
	}

	if len(result.Groups) > 0 {
		fmt.Println("📋 Inferred radio groups:")
		for _, group := range result.Groups {
			fmt.Printf("  • %s (%s): %s\n",
				group.GroupName, strings.Join(group.InferenceSources, ", "), strings.Join(group.Members, ", "))
		}
		fmt.Println()
	}

	for _, warning := range result.Warnings {
		fmt.Printf("⚠️  %s\n", warning)
	}
	for _, errText := range result.Errors {
		fmt.Printf("❌ %s\n", errText)
	}

	return nil
}

func outputRenameText(result *pdf.PDFRenameFieldsResult) error {
	if result.Success {
		fmt.Printf("✅ Renamed %d field(s) successfully\n", len(result.Modifications))
	} else {
		fmt.Printf("❌ Rename completed with %d error(s); %d field(s) renamed\n",
			len(result.Errors), len(result.Modifications))
	}
	fmt.Printf("    Source: %s\n", result.OriginalRef)
	fmt.Printf("    Output: %s\n", result.ModifiedRef)
	fmt.Printf("    Field count: %d before, %d after\n", result.FieldCountBefore, result.FieldCountAfter)
	fmt.Println()

	for i, mod := range result.Modifications {
		fmt.Printf("[%d] %s -> %s\n", i+1, mod.Old, mod.New)
		fmt.Printf("    Type: %s\n", mod.Type)
		if mod.Page > 0 {
			fmt.Printf("    Page: %d\n", mod.Page)
		}
		fmt.Printf("    Properties preserved: %d\n", mod.PreservedPropertyCount)
	}

	if len(result.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, errText := range result.Errors {
			fmt.Printf("  ❌ %s\n", errText)
		}
	}
	if len(result.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, warning := range result.Warnings {
			fmt.Printf("  ⚠️  %s\n", warning)
		}
	}

	if !result.Success {
		os.Exit(1)
	}
	return nil
}
