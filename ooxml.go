package sheetlock

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// cellPos is a 1-based cell coordinate as stored in the package.
type cellPos struct {
	row, col int
}

// colSpan is a <col> element: columns min..max share a default style.
type colSpan struct {
	min, max, style int
}

// rowStyle is a row carrying its own default style (customFormat).
type rowStyle struct {
	row, style int
}

// sheetPart is what the protector needs from one worksheet part that
// excelize does not expose: the raw sheetProtection element, the positions
// of physical and formula cells, and column and row default styles.
type sheetPart struct {
	protection   *protectionInfo
	cells        []cellPos
	formulaCells []cellPos
	cols         []colSpan
	rowStyles    []rowStyle
	rows         int
	lastRow      int
	lastCol      int
}

// protectionInfo holds the attributes of a sheetProtection element.
type protectionInfo struct {
	attrs map[string]string
}

// ooxmlDefaults are the schema defaults of sheetProtection attributes.
// A true value means the action is prohibited while protected.
var ooxmlDefaults = map[string]bool{
	"sheet":               false,
	"objects":             false,
	"scenarios":           false,
	"formatCells":         true,
	"formatColumns":       true,
	"formatRows":          true,
	"insertColumns":       true,
	"insertRows":          true,
	"insertHyperlinks":    true,
	"deleteColumns":       true,
	"deleteRows":          true,
	"selectLockedCells":   false,
	"sort":                true,
	"autoFilter":          true,
	"pivotTables":         true,
	"selectUnlockedCells": false,
}

func (p *protectionInfo) flag(name string) bool {
	v, ok := p.attrs[name]
	if !ok {
		return ooxmlDefaults[name]
	}
	return isTrue(v)
}

func isTrue(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

// protected reports whether the element actually turns protection on.
func (p *protectionInfo) protected() bool {
	return p != nil && p.flag("sheet")
}

// passwordProtected reports whether a legacy or ISO password hash is set.
func (p *protectionInfo) passwordProtected() bool {
	if !p.protected() {
		return false
	}
	return p.attrs["password"] != "" || p.attrs["hashValue"] != ""
}

// options converts the element back into excelize's allow-list form.
func (p *protectionInfo) options() *excelize.SheetProtectionOptions {
	if !p.protected() {
		return defaultProtectionOptions()
	}
	return &excelize.SheetProtectionOptions{
		AutoFilter:          !p.flag("autoFilter"),
		DeleteColumns:       !p.flag("deleteColumns"),
		DeleteRows:          !p.flag("deleteRows"),
		EditObjects:         !p.flag("objects"),
		EditScenarios:       !p.flag("scenarios"),
		FormatCells:         !p.flag("formatCells"),
		FormatColumns:       !p.flag("formatColumns"),
		FormatRows:          !p.flag("formatRows"),
		InsertColumns:       !p.flag("insertColumns"),
		InsertHyperlinks:    !p.flag("insertHyperlinks"),
		InsertRows:          !p.flag("insertRows"),
		PivotTables:         !p.flag("pivotTables"),
		SelectLockedCells:   !p.flag("selectLockedCells"),
		SelectUnlockedCells: !p.flag("selectUnlockedCells"),
		Sort:                !p.flag("sort"),
	}
}

// defaultProtectionOptions matches what a spreadsheet application applies
// when protecting a sheet without extra settings: only cell selection allowed.
func defaultProtectionOptions() *excelize.SheetProtectionOptions {
	return &excelize.SheetProtectionOptions{
		SelectLockedCells:   true,
		SelectUnlockedCells: true,
	}
}

// readPackage indexes every worksheet part of an xlsx package by sheet name.
func readPackage(data []byte) (map[string]*sheetPart, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}

	workbookXML, err := readZipFile(zr, "xl/workbook.xml")
	if err != nil {
		return nil, err
	}
	relsXML, err := readZipFile(zr, "xl/_rels/workbook.xml.rels")
	if err != nil {
		return nil, err
	}

	sheetIDs, err := parseWorkbookSheets(workbookXML)
	if err != nil {
		return nil, err
	}
	targets, err := parseWorksheetRels(relsXML)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*sheetPart, len(sheetIDs))
	for name, rid := range sheetIDs {
		target, ok := targets[rid]
		if !ok {
			continue
		}
		partXML, err := readZipFile(zr, resolvePartPath(target))
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		part, err := parseSheetPart(partXML)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		result[name] = part
	}
	return result, nil
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open part %q: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("part %q not found", name)
}

func resolvePartPath(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join("xl", target))
}

// parseWorkbookSheets maps sheet names to relationship ids.
func parseWorkbookSheets(data []byte) (map[string]string, error) {
	result := make(map[string]string)
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse workbook: %w", err)
		}
		se, ok := token.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var name, rid string
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "name":
				name = attr.Value
			case "id":
				rid = attr.Value
			}
		}
		if name != "" && rid != "" {
			result[name] = rid
		}
	}
}

// parseWorksheetRels maps relationship ids to worksheet part targets.
// Chartsheets and other part types are left out.
func parseWorksheetRels(data []byte) (map[string]string, error) {
	result := make(map[string]string)
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse workbook rels: %w", err)
		}
		se, ok := token.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target, typ string
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "Id":
				id = attr.Value
			case "Target":
				target = attr.Value
			case "Type":
				typ = attr.Value
			}
		}
		if id != "" && strings.HasSuffix(typ, "/worksheet") {
			result[id] = target
		}
	}
}

// parseSheetPart streams a worksheet part and records protection and cell positions.
func parseSheetPart(data []byte) (*sheetPart, error) {
	part := &sheetPart{}
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var (
		row, col  int
		inCell    bool
		cellHasFx bool
	)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return part, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse worksheet: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "row":
				part.rows++
				row++
				col = 0
				if r := attrValue(t, "r"); r != "" {
					if n, err := parseRowNumber(r); err == nil {
						row = n
					}
				}
				part.lastRow = max(part.lastRow, row)
				if isTrue(attrValue(t, "customFormat")) {
					if style, err := strconv.Atoi(attrValue(t, "s")); err == nil {
						part.rowStyles = append(part.rowStyles, rowStyle{row: row, style: style})
					}
				}
			case "col":
				span, err := parseColSpan(t)
				if err != nil {
					return nil, err
				}
				part.cols = append(part.cols, span)
			case "c":
				col++
				if r := attrValue(t, "r"); r != "" {
					if c, rr, err := excelize.CellNameToCoordinates(r); err == nil {
						col, row = c, rr
					}
				}
				inCell = true
				cellHasFx = false
				part.cells = append(part.cells, cellPos{row: row, col: col})
				if row > part.lastRow {
					part.lastRow = row
				}
				if col > part.lastCol {
					part.lastCol = col
				}
			case "f":
				if inCell {
					cellHasFx = true
				}
			case "sheetProtection":
				info := &protectionInfo{attrs: make(map[string]string, len(t.Attr))}
				for _, attr := range t.Attr {
					info.attrs[attr.Name.Local] = attr.Value
				}
				part.protection = info
			}
		case xml.EndElement:
			if t.Name.Local == "c" {
				if cellHasFx {
					part.formulaCells = append(part.formulaCells, cellPos{row: row, col: col})
				}
				inCell = false
			}
		}
	}
}

func parseColSpan(se xml.StartElement) (colSpan, error) {
	var span colSpan
	var err error
	if span.min, err = strconv.Atoi(attrValue(se, "min")); err != nil {
		return span, fmt.Errorf("parse col min: %w", err)
	}
	if span.max, err = strconv.Atoi(attrValue(se, "max")); err != nil {
		return span, fmt.Errorf("parse col max: %w", err)
	}
	if s := attrValue(se, "style"); s != "" {
		if span.style, err = strconv.Atoi(s); err != nil {
			return span, fmt.Errorf("parse col style: %w", err)
		}
	}
	return span, nil
}

func attrValue(se xml.StartElement, local string) string {
	for _, attr := range se.Attr {
		if attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}

func parseRowNumber(s string) (int, error) {
	n := 0
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return 0, fmt.Errorf("invalid row number %q", s)
		}
		n = n*10 + int(ch-'0')
	}
	if n < 1 {
		return 0, fmt.Errorf("invalid row number %q", s)
	}
	return n, nil
}
