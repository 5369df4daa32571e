package schema

func init() {
	Register(Schema{
		ImportType: Inventory,
		Label:      "Inventory",
		Fields: []Field{
			{Name: "name", Type: TypeString, Required: true, Description: "Inventory item name",
				Synonyms: []string{"item name", "item", "product", "ingredient", "description"}},
			{Name: "sku", Type: TypeString, Description: "Stock keeping unit",
				Synonyms: []string{"item code", "product code", "barcode", "upc", "item id"}},
			{Name: "unit", Type: TypeString, Required: true, Description: "Unit of measure",
				Synonyms: []string{"uom", "unit of measure", "units", "count unit"}},
			{Name: "current_stock", Type: TypeDecimal, Required: true, Description: "On-hand quantity",
				Synonyms: []string{"on hand", "quantity on hand", "qty on hand", "stock", "in stock", "quantity", "qty", "count"}},
			{Name: "par_level", Type: TypeDecimal, Description: "Target stock level",
				Synonyms: []string{"par", "par qty", "target level"}},
			{Name: "reorder_point", Type: TypeDecimal, Description: "Reorder threshold",
				Synonyms: []string{"reorder level", "min qty", "minimum", "reorder at"}},
			{Name: "unit_cost", Type: TypeDecimal, Description: "Cost per unit",
				Synonyms: []string{"cost", "price", "cost per unit", "last cost", "avg cost"}},
			{Name: "supplier", Type: TypeString, Description: "Primary supplier",
				Synonyms: []string{"vendor", "distributor", "supplier name", "vendor name"}},
			{Name: "category", Type: TypeString, Description: "Inventory category",
				Synonyms: []string{"group", "storage area", "location", "type"}},
			{Name: "last_counted", Type: TypeDate, Description: "Date of last count",
				Synonyms: []string{"count date", "last count", "counted at", "updated"}},
		},
	})
}
