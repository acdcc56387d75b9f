package access

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Field flag bits from the PDF spec (table 221/226/228).
const (
	flagReadOnly  = 1       // Bit 1
	flagRequired  = 2       // Bit 2
	flagMultiline = 1 << 12 // Bit 13
)

// pdfcpuAccess implements FormAccess using the pdfcpu library. The whole
// document is read into an in-memory context; Commit serializes it back out.
type pdfcpuAccess struct {
	path      string
	ctx       *model.Context
	fields    map[string]types.Dict
	order     []string
	parents   map[string]string // qualified name -> parent qualified name
	objNrs    map[string]int    // qualified name -> indirect object number
	annotPage map[int]int       // annotation object number -> page number
	debugMode bool
	closed    bool
}

// Open opens the PDF at path for form field access using pdfcpu.
func Open(path string) (FormAccess, error) {
	return OpenDebug(path, false)
}

// OpenDebug opens the PDF at path with optional debug tracing.
func OpenDebug(path string, debugMode bool) (FormAccess, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &AccessError{Op: "open", Err: err}
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, &AccessError{Op: "open", Err: fmt.Errorf("failed to read PDF context: %w", err)}
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &AccessError{Op: "open", Err: fmt.Errorf("failed to ensure page count: %w", err)}
	}

	fa := &pdfcpuAccess{
		path:      path,
		ctx:       ctx,
		fields:    make(map[string]types.Dict),
		parents:   make(map[string]string),
		objNrs:    make(map[string]int),
		annotPage: make(map[int]int),
		debugMode: debugMode,
	}
	fa.indexAnnotationPages()
	if err := fa.indexFields(); err != nil {
		return nil, err
	}
	return fa, nil
}

// indexAnnotationPages walks the page tree and records which page each
// annotation object belongs to, so fields can report a real page number.
func (fa *pdfcpuAccess) indexAnnotationPages() {
	rootDict, err := fa.ctx.Catalog()
	if err != nil {
		return
	}
	pagesObj, found := rootDict.Find("Pages")
	if !found {
		return
	}
	pageNr := 0
	fa.walkPageTree(pagesObj, &pageNr)
}

func (fa *pdfcpuAccess) walkPageTree(nodeObj types.Object, pageNr *int) {
	nodeDict, err := fa.ctx.DereferenceDict(nodeObj)
	if err != nil || nodeDict == nil {
		return
	}

	if typeObj, found := nodeDict.Find("Type"); found {
		if nodeType, ok := typeObj.(types.Name); ok && string(nodeType) == "Pages" {
			if kidsObj, found := nodeDict.Find("Kids"); found {
				if kids, err := fa.ctx.DereferenceArray(kidsObj); err == nil {
					for _, kid := range kids {
						fa.walkPageTree(kid, pageNr)
					}
				}
			}
			return
		}
	}

	*pageNr++
	annotsObj, found := nodeDict.Find("Annots")
	if !found {
		return
	}
	annots, err := fa.ctx.DereferenceArray(annotsObj)
	if err != nil {
		return
	}
	for _, annot := range annots {
		if ref, ok := annot.(types.IndirectRef); ok {
			fa.annotPage[int(ref.ObjectNumber)] = *pageNr
		}
	}
}

// indexFields walks the AcroForm field tree and indexes every named field
// dictionary under its fully-qualified name.
func (fa *pdfcpuAccess) indexFields() error {
	rootDict, err := fa.ctx.Catalog()
	if err != nil {
		return &AccessError{Op: "index", Err: fmt.Errorf("failed to get catalog: %w", err)}
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return &AccessError{Op: "index", Err: ErrCapabilityMissing}
	}

	acroFormDict, err := fa.ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return &AccessError{Op: "index", Err: fmt.Errorf("failed to dereference AcroForm: %w", err)}
	}
	if acroFormDict == nil {
		return &AccessError{Op: "index", Err: ErrCapabilityMissing}
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return &AccessError{Op: "index", Err: ErrCapabilityMissing}
	}

	fieldsArray, err := fa.ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return &AccessError{Op: "index", Err: fmt.Errorf("failed to dereference Fields array: %w", err)}
	}

	for _, fieldRef := range fieldsArray {
		if err := fa.indexField(fieldRef, ""); err != nil && fa.debugMode {
			fmt.Printf("Error indexing field: %v\n", err)
		}
	}
	return nil
}

// indexField indexes one field dictionary and recurses into Kids that carry
// their own partial names, building dotted fully-qualified names.
func (fa *pdfcpuAccess) indexField(fieldObj types.Object, parent string) error {
	fieldDict, err := fa.ctx.DereferenceDict(fieldObj)
	if err != nil {
		return fmt.Errorf("failed to dereference field: %w", err)
	}
	if fieldDict == nil {
		return nil
	}

	name := parent
	if nameObj, found := fieldDict.Find("T"); found {
		if partial, err := fa.ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil && partial != "" {
			if parent != "" {
				name = parent + "." + partial
			} else {
				name = partial
			}
		}
	}

	if name != "" && name != parent {
		if _, dup := fa.fields[name]; !dup {
			fa.fields[name] = fieldDict
			fa.order = append(fa.order, name)
			if parent != "" {
				fa.parents[name] = parent
			}
			if ref, ok := fieldObj.(types.IndirectRef); ok {
				fa.objNrs[name] = int(ref.ObjectNumber)
			}
		}
	}

	if kidsObj, found := fieldDict.Find("Kids"); found {
		if kidsArray, err := fa.ctx.DereferenceArray(kidsObj); err == nil {
			for _, kidRef := range kidsArray {
				if err := fa.indexField(kidRef, name); err != nil && fa.debugMode {
					fmt.Printf("Error indexing kid of %q: %v\n", name, err)
				}
			}
		}
	}
	return nil
}

func (fa *pdfcpuAccess) FieldNames() ([]string, error) {
	if fa.closed {
		return nil, &AccessError{Op: "field_names", Err: ErrDocumentClosed}
	}
	names := make([]string, len(fa.order))
	copy(names, fa.order)
	return names, nil
}

func (fa *pdfcpuAccess) HasField(name string) bool {
	if fa.closed {
		return false
	}
	_, ok := fa.fields[name]
	return ok
}

func (fa *pdfcpuAccess) ReadProperty(field string, key PropertyKey) (any, bool, error) {
	if fa.closed {
		return nil, false, &AccessError{Op: "read_property", Field: field, Err: ErrDocumentClosed}
	}
	fieldDict, ok := fa.fields[field]
	if !ok {
		return nil, false, &AccessError{Op: "read_property", Field: field, Err: ErrFieldNotFound}
	}

	switch key {
	case PropRect:
		if rect, found := fa.fieldRect(fieldDict); found {
			return rect, true, nil
		}
	case PropPage:
		if page, found := fa.fieldPage(field, fieldDict); found {
			return page, true, nil
		}
	case PropRequired:
		if flags, found := fa.fieldFlags(fieldDict); found {
			return flags&flagRequired != 0, true, nil
		}
	case PropReadOnly:
		if flags, found := fa.fieldFlags(fieldDict); found {
			return flags&flagReadOnly != 0, true, nil
		}
	case PropMultiline:
		if flags, found := fa.fieldFlags(fieldDict); found {
			return flags&flagMultiline != 0, true, nil
		}
	case PropFieldFlags:
		if flags, found := fa.fieldFlags(fieldDict); found {
			return flags, true, nil
		}
	case PropMaxLength:
		if maxLenObj, found := fieldDict.Find("MaxLen"); found {
			if maxLen, err := fa.ctx.DereferenceInteger(maxLenObj); err == nil && maxLen != nil {
				return int(*maxLen), true, nil
			}
		}
	case PropChoices:
		if opts := fa.fieldOptions(fieldDict); len(opts) > 0 {
			return opts, true, nil
		}
	case PropValue:
		if valueObj, found := fieldDict.Find("V"); found {
			if v, found := fa.stringOrName(valueObj); found {
				return v, true, nil
			}
		}
	case PropDefaultValue:
		if defaultObj, found := fieldDict.Find("DV"); found {
			if v, found := fa.stringOrName(defaultObj); found {
				return v, true, nil
			}
		}
	case PropTooltip:
		if v, found := fa.stringEntry(fieldDict, "TU"); found {
			return v, true, nil
		}
	case PropMappingName:
		if v, found := fa.stringEntry(fieldDict, "TM"); found {
			return v, true, nil
		}
	case PropAppearance:
		if v, found := fa.stringEntry(fieldDict, "DA"); found {
			return v, true, nil
		}
	case PropBorderWidth:
		if bsObj, found := fieldDict.Find("BS"); found {
			if bsDict, err := fa.ctx.DereferenceDict(bsObj); err == nil && bsDict != nil {
				if wObj, found := bsDict.Find("W"); found {
					if width, err := fa.ctx.DereferenceNumber(wObj); err == nil {
						return width, true, nil
					}
				}
			}
		}
	}
	return nil, false, nil
}

func (fa *pdfcpuAccess) WriteProperty(field string, key PropertyKey, value any) error {
	if fa.closed {
		return &AccessError{Op: "write_property", Field: field, Err: ErrDocumentClosed}
	}
	fieldDict, ok := fa.fields[field]
	if !ok {
		return &AccessError{Op: "write_property", Field: field, Err: ErrFieldNotFound}
	}

	switch key {
	case PropRequired:
		if b, ok := value.(bool); ok {
			fa.setFlag(fieldDict, flagRequired, b)
			return nil
		}
	case PropReadOnly:
		if b, ok := value.(bool); ok {
			fa.setFlag(fieldDict, flagReadOnly, b)
			return nil
		}
	case PropMultiline:
		if b, ok := value.(bool); ok {
			fa.setFlag(fieldDict, flagMultiline, b)
			return nil
		}
	case PropFieldFlags:
		if n, ok := value.(int); ok {
			fieldDict["Ff"] = types.Integer(n)
			return nil
		}
	case PropMaxLength:
		if n, ok := value.(int); ok {
			fieldDict["MaxLen"] = types.Integer(n)
			return nil
		}
	case PropTooltip:
		if s, ok := value.(string); ok {
			fieldDict["TU"] = types.StringLiteral(s)
			return nil
		}
	case PropMappingName:
		if s, ok := value.(string); ok {
			fieldDict["TM"] = types.StringLiteral(s)
			return nil
		}
	case PropAppearance:
		if s, ok := value.(string); ok {
			fieldDict["DA"] = types.StringLiteral(s)
			return nil
		}
	case PropValue:
		if s, ok := value.(string); ok {
			fieldDict["V"] = types.StringLiteral(s)
			return nil
		}
	}
	// Geometry, page assignment, choice lists and default values ride along
	// with the field dictionary untouched by a key rename.
	return &AccessError{Op: "write_property", Field: field, Err: ErrPropertyNotWritable}
}

// RenameField renames a top-level field and rekeys its descendants under the
// new qualified names. Kid fields carry only the partial name after the last
// period, so renaming one directly would desynchronize the written T entry
// from its qualified name; those renames are rejected.
func (fa *pdfcpuAccess) RenameField(oldName, newName string) error {
	if fa.closed {
		return &AccessError{Op: "rename", Field: oldName, Err: ErrDocumentClosed}
	}
	fieldDict, ok := fa.fields[oldName]
	if !ok {
		return &AccessError{Op: "rename", Field: oldName, Err: ErrFieldNotFound}
	}
	if fa.parents[oldName] != "" {
		return &AccessError{Op: "rename", Field: oldName, Err: ErrKidFieldRename}
	}
	if strings.Contains(newName, ".") {
		return &AccessError{Op: "rename", Field: oldName, Err: fmt.Errorf("partial field names cannot contain a period")}
	}

	rekey := map[string]string{oldName: newName}
	for name := range fa.parents {
		if fa.hasAncestor(name, oldName) {
			rekey[name] = newName + strings.TrimPrefix(name, oldName)
		}
	}
	for _, renamed := range rekey {
		if _, taken := fa.fields[renamed]; taken {
			return &AccessError{Op: "rename", Field: renamed, Err: ErrFieldExists}
		}
	}

	fieldDict["T"] = types.StringLiteral(newName)

	for old, renamed := range rekey {
		fa.fields[renamed] = fa.fields[old]
		delete(fa.fields, old)
		if nr, ok := fa.objNrs[old]; ok {
			fa.objNrs[renamed] = nr
			delete(fa.objNrs, old)
		}
	}
	for old, renamed := range rekey {
		if parent, ok := fa.parents[old]; ok {
			delete(fa.parents, old)
			if renamedParent, ok := rekey[parent]; ok {
				parent = renamedParent
			}
			fa.parents[renamed] = parent
		}
	}
	for i, n := range fa.order {
		if renamed, ok := rekey[n]; ok {
			fa.order[i] = renamed
		}
	}

	if fa.debugMode {
		fmt.Printf("Renamed field: %s -> %s\n", oldName, newName)
	}
	return nil
}

// hasAncestor reports whether ancestor appears in name's parent chain. It
// distinguishes real hierarchy from top-level names that merely contain a
// literal period.
func (fa *pdfcpuAccess) hasAncestor(name, ancestor string) bool {
	for p := fa.parents[name]; p != ""; p = fa.parents[p] {
		if p == ancestor {
			return true
		}
	}
	return false
}

func (fa *pdfcpuAccess) Commit() error {
	if fa.closed {
		return &AccessError{Op: "commit", Err: ErrDocumentClosed}
	}
	if err := api.WriteContextFile(fa.ctx, fa.path); err != nil {
		return &AccessError{Op: "commit", Err: err}
	}
	return nil
}

func (fa *pdfcpuAccess) Close() error {
	fa.closed = true
	fa.ctx = nil
	fa.fields = nil
	fa.order = nil
	fa.parents = nil
	fa.objNrs = nil
	fa.annotPage = nil
	return nil
}

// fieldFlags reads the Ff entry, following Parent for inherited flags.
func (fa *pdfcpuAccess) fieldFlags(fieldDict types.Dict) (int, bool) {
	if flagsObj, found := fieldDict.Find("Ff"); found {
		if flags, err := fa.ctx.DereferenceInteger(flagsObj); err == nil && flags != nil {
			return int(*flags), true
		}
	}
	if parentObj, found := fieldDict.Find("Parent"); found {
		if parentDict, err := fa.ctx.DereferenceDict(parentObj); err == nil && parentDict != nil {
			return fa.fieldFlags(parentDict)
		}
	}
	return 0, false
}

func (fa *pdfcpuAccess) setFlag(fieldDict types.Dict, bit int, on bool) {
	flags, _ := fa.fieldFlags(fieldDict)
	if on {
		flags |= bit
	} else {
		flags &^= bit
	}
	fieldDict["Ff"] = types.Integer(flags)
}

// fieldPage resolves the page a field sits on through the annotation page
// index: the field's own object when it is a merged field/widget, otherwise
// its first widget kid. Fields with geometry the page tree never references
// fall back to page 1.
func (fa *pdfcpuAccess) fieldPage(field string, fieldDict types.Dict) (int, bool) {
	if nr, ok := fa.objNrs[field]; ok {
		if page, ok := fa.annotPage[nr]; ok {
			return page, true
		}
	}
	if kidsObj, found := fieldDict.Find("Kids"); found {
		if kids, err := fa.ctx.DereferenceArray(kidsObj); err == nil {
			for _, kid := range kids {
				if ref, ok := kid.(types.IndirectRef); ok {
					if page, ok := fa.annotPage[int(ref.ObjectNumber)]; ok {
						return page, true
					}
				}
			}
		}
	}
	if _, found := fa.fieldRect(fieldDict); found {
		return 1, true
	}
	return 0, false
}

// fieldRect reads the Rect entry from the field dictionary or its first
// widget annotation kid.
func (fa *pdfcpuAccess) fieldRect(fieldDict types.Dict) (Rect, bool) {
	if rectObj, found := fieldDict.Find("Rect"); found {
		if rect, ok := fa.parseRect(rectObj); ok {
			return rect, true
		}
	}
	if kidsObj, found := fieldDict.Find("Kids"); found {
		if kidsArray, err := fa.ctx.DereferenceArray(kidsObj); err == nil && len(kidsArray) > 0 {
			if widgetDict, err := fa.ctx.DereferenceDict(kidsArray[0]); err == nil && widgetDict != nil {
				if rectObj, found := widgetDict.Find("Rect"); found {
					return fa.parseRect(rectObj)
				}
			}
		}
	}
	return Rect{}, false
}

func (fa *pdfcpuAccess) parseRect(rectObj types.Object) (Rect, bool) {
	rectArray, err := fa.ctx.DereferenceArray(rectObj)
	if err != nil || len(rectArray) != 4 {
		return Rect{}, false
	}
	coords := make([]float64, 4)
	for i, coord := range rectArray {
		if f, err := fa.ctx.DereferenceNumber(coord); err == nil {
			coords[i] = f
		}
	}
	return Rect{LLX: coords[0], LLY: coords[1], URX: coords[2], URY: coords[3]}, true
}

// fieldOptions extracts the Opt array for choice fields. Entries can be
// plain strings or [export_value, display_value] pairs.
func (fa *pdfcpuAccess) fieldOptions(fieldDict types.Dict) []string {
	optObj, found := fieldDict.Find("Opt")
	if !found {
		return nil
	}
	optArray, err := fa.ctx.DereferenceArray(optObj)
	if err != nil {
		return nil
	}
	var options []string
	for _, opt := range optArray {
		if str, err := fa.ctx.DereferenceStringOrHexLiteral(opt, model.V10, nil); err == nil {
			options = append(options, str)
		} else if arr, err := fa.ctx.DereferenceArray(opt); err == nil && len(arr) >= 2 {
			if displayVal, err := fa.ctx.DereferenceStringOrHexLiteral(arr[1], model.V10, nil); err == nil {
				options = append(options, displayVal)
			}
		}
	}
	return options
}

func (fa *pdfcpuAccess) stringEntry(fieldDict types.Dict, entry string) (string, bool) {
	obj, found := fieldDict.Find(entry)
	if !found {
		return "", false
	}
	s, err := fa.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil)
	if err != nil {
		return "", false
	}
	return s, true
}

// stringOrName reads a value that may be a string literal or a PDF name
// (checkbox and radio values are names like /Yes).
func (fa *pdfcpuAccess) stringOrName(obj types.Object) (string, bool) {
	if s, err := fa.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil {
		return s, true
	}
	if n, err := fa.ctx.DereferenceName(obj, model.V10, nil); err == nil {
		return string(n), true
	}
	return "", false
}
