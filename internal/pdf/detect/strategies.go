package detect

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Strategy enumerates field names for one document. Strategies are
// independent; a failure in one never affects the others.
type Strategy interface {
	ID() string
	Enumerate(ctx context.Context, doc *Document) ([]string, error)
}

// ErrStrategyUnavailable marks a strategy whose underlying capability is
// missing for this document. The detector downgrades it to a warning.
var ErrStrategyUnavailable = errors.New("detection capability unavailable")

// StrategyAcroForm is the id of the primary strategy.
const (
	StrategyAcroForm  = "acroform"
	StrategyFieldTree = "fieldtree"
	StrategyWidgets   = "widgets"
	StrategyTextScan  = "textscan"
)

// DefaultStrategies returns the built-in strategies in registration order.
// The first entry is the primary strategy that gates field accessibility.
func DefaultStrategies() []Strategy {
	return []Strategy{
		acroFormStrategy{},
		fieldTreeStrategy{},
		widgetStrategy{},
		textScanStrategy{},
	}
}

// acroFormStrategy enumerates the top-level AcroForm field names. Fields it
// reports are directly addressable for mutation, which makes it the primary
// strategy.
type acroFormStrategy struct{}

func (acroFormStrategy) ID() string { return StrategyAcroForm }

func (acroFormStrategy) Enumerate(_ context.Context, doc *Document) ([]string, error) {
	var names []string
	err := doc.withContext(func(pctx *model.Context) error {
		fieldsArray, err := acroFormFields(pctx)
		if err != nil || fieldsArray == nil {
			return err
		}
		for _, fieldRef := range fieldsArray {
			fieldDict, err := pctx.DereferenceDict(fieldRef)
			if err != nil || fieldDict == nil {
				continue
			}
			if name, ok := fieldName(pctx, fieldDict); ok {
				names = append(names, name)
			}
		}
		return nil
	})
	return names, err
}

// fieldTreeStrategy walks the full AcroForm hierarchy and emits dotted
// fully-qualified names for kids that carry their own partial name.
type fieldTreeStrategy struct{}

func (fieldTreeStrategy) ID() string { return StrategyFieldTree }

func (fieldTreeStrategy) Enumerate(_ context.Context, doc *Document) ([]string, error) {
	var names []string
	err := doc.withContext(func(pctx *model.Context) error {
		fieldsArray, err := acroFormFields(pctx)
		if err != nil || fieldsArray == nil {
			return err
		}
		for _, fieldRef := range fieldsArray {
			names = walkFieldTree(pctx, fieldRef, "", names)
		}
		return nil
	})
	return names, err
}

func walkFieldTree(pctx *model.Context, fieldObj types.Object, parent string, names []string) []string {
	fieldDict, err := pctx.DereferenceDict(fieldObj)
	if err != nil || fieldDict == nil {
		return names
	}

	name := parent
	if partial, ok := fieldName(pctx, fieldDict); ok {
		if parent != "" {
			name = parent + "." + partial
		} else {
			name = partial
		}
		names = append(names, name)
	}

	if kidsObj, found := fieldDict.Find("Kids"); found {
		if kidsArray, err := pctx.DereferenceArray(kidsObj); err == nil {
			for _, kidRef := range kidsArray {
				names = walkFieldTree(pctx, kidRef, name, names)
			}
		}
	}
	return names
}

// widgetStrategy scans the cross-reference table for widget annotation
// dictionaries that carry their own field name. It catches fields reachable
// only through page annotations.
type widgetStrategy struct{}

func (widgetStrategy) ID() string { return StrategyWidgets }

func (widgetStrategy) Enumerate(_ context.Context, doc *Document) ([]string, error) {
	var names []string
	err := doc.withContext(func(pctx *model.Context) error {
		objNrs := make([]int, 0, len(pctx.Table))
		for nr := range pctx.Table {
			objNrs = append(objNrs, nr)
		}
		sort.Ints(objNrs)

		for _, nr := range objNrs {
			entry := pctx.Table[nr]
			if entry == nil || entry.Free || entry.Object == nil {
				continue
			}
			dict, ok := entry.Object.(types.Dict)
			if !ok {
				continue
			}
			subtypeObj, found := dict.Find("Subtype")
			if !found {
				continue
			}
			subtype, ok := subtypeObj.(types.Name)
			if !ok || string(subtype) != "Widget" {
				continue
			}
			if name, ok := fieldName(pctx, dict); ok {
				names = append(names, name)
			}
		}
		return nil
	})
	return names, err
}

// textScanStrategy looks for form-like patterns in rendered page text and
// emits synthetic field names. It is a heuristic fallback for documents this
// library can open but that hide their field dictionaries; when the content
// reader cannot open the document at all the capability is reported missing.
type textScanStrategy struct{}

func (textScanStrategy) ID() string { return StrategyTextScan }

func (textScanStrategy) Enumerate(_ context.Context, doc *Document) ([]string, error) {
	reader, err := doc.contentReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStrategyUnavailable, err)
	}

	var names []string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		var text strings.Builder
		for _, t := range content.Text {
			text.WriteString(t.S)
		}
		pageText := text.String()

		if containsAny(pageText, "[ ]", "[X]", "[x]") {
			names = append(names, fmt.Sprintf("checkbox_%d", len(names)+1))
		}
		if containsAny(pageText, "____", "....") {
			names = append(names, fmt.Sprintf("textfield_%d", len(names)+1))
		}
	}
	return names, nil
}

func containsAny(text string, patterns ...string) bool {
	for _, pattern := range patterns {
		if strings.Contains(text, pattern) {
			return true
		}
	}
	return false
}

// acroFormFields resolves the AcroForm Fields array, returning nil when the
// document simply has no interactive form.
func acroFormFields(pctx *model.Context) (types.Array, error) {
	rootDict, err := pctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil, nil
	}
	acroFormDict, err := pctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return nil, nil
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return nil, nil
	}
	fieldsArray, err := pctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}
	return fieldsArray, nil
}

func fieldName(pctx *model.Context, fieldDict types.Dict) (string, bool) {
	nameObj, found := fieldDict.Find("T")
	if !found {
		return "", false
	}
	name, err := pctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil)
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}
