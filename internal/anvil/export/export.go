// Package export renders bills of materials as plain text and spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

// SheetName is the worksheet the XLSX export writes to.
const SheetName = "Bill of Materials"

// WriteText writes b as a plain-text shopping list.
func WriteText(w io.Writer, b *anvil.BillOfMaterials) error {
	_, err := io.WriteString(w, Text(b))
	return err
}

// Text renders b as a plain-text shopping list: books first, then base items.
func Text(b *anvil.BillOfMaterials) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Shopping list for %s\n", b.BaseItem.DisplayName)

	var books, items []anvil.BOMItem
	for _, item := range b.Items {
		if item.ItemType == anvil.BOMItemBook {
			books = append(books, item)
		} else {
			items = append(items, item)
		}
	}

	writeSection(&sb, "Books", books)
	writeSection(&sb, "Base items", items)
	return sb.String()
}

func writeSection(sb *strings.Builder, title string, items []anvil.BOMItem) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(sb, "  %dx %s\n", item.Quantity, item.Item)
	}
}

// WriteXLSX saves b as a one-sheet workbook at path.
func WriteXLSX(path string, b *anvil.BillOfMaterials) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := []any{"Item", "Type", "Enchantment", "Level", "Quantity"}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", "E1", headerStyle); err != nil {
		return err
	}

	row := 2
	for _, item := range b.Items {
		values := []any{item.Item, string(item.ItemType), "", "", item.Quantity}
		if item.Enchantment != nil {
			values[2] = item.Enchantment.ID
			values[3] = item.Enchantment.Level
		}
		if err := f.SetSheetRow(SheetName, fmt.Sprintf("A%d", row), &values); err != nil {
			return fmt.Errorf("writing row %d: %w", row, err)
		}
		row++
	}

	// Footer names the item the materials are for.
	row++
	if err := f.SetCellValue(SheetName, fmt.Sprintf("A%d", row), "Base item"); err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, fmt.Sprintf("B%d", row), b.BaseItem.DisplayName); err != nil {
		return err
	}

	if err := f.SetColWidth(SheetName, "A", "A", 32); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "B", "E", 14); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
