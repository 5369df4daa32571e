package schema

func init() {
	Register(Schema{
		ImportType: Menu,
		Label:      "Menu Items",
		Fields: []Field{
			{Name: "name", Type: TypeString, Required: true, Description: "Menu item name",
				Synonyms: []string{"item name", "item", "menu item", "product name", "product", "dish", "title"}},
			{Name: "price", Type: TypeDecimal, Required: true, Description: "Selling price",
				Synonyms: []string{"item price", "unit price", "selling price", "base price", "amount", "cost to customer", "menu price"}},
			{Name: "category", Type: TypeString, Description: "Menu category",
				Synonyms: []string{"menu category", "item category", "menu group", "group", "section", "course", "type"}},
			{Name: "description", Type: TypeString, Description: "Item description",
				Synonyms: []string{"item description", "details", "notes", "desc"}},
			{Name: "pos_id", Type: TypeString, Description: "Identifier in the source POS",
				Synonyms: []string{"item id", "id", "token", "guid", "menu item id", "plu", "external id"}},
			{Name: "sku", Type: TypeString, Description: "Stock keeping unit",
				Synonyms: []string{"sku code", "item code", "product code", "barcode", "upc"}},
			{Name: "cost", Type: TypeDecimal, Description: "Food cost per item",
				Synonyms: []string{"item cost", "food cost", "unit cost", "cogs"}},
			{Name: "allergens", Type: TypeList, Description: "Allergen list",
				Synonyms: []string{"allergen", "allergy info", "contains", "dietary"}},
			{Name: "spice_level", Type: TypeString, Description: "Heat level",
				Synonyms: []string{"spice", "heat", "heat level", "spiciness"}},
			{Name: "calories", Type: TypeInteger, Description: "Calories per serving",
				Synonyms: []string{"kcal", "calorie count", "energy"}},
			{Name: "is_active", Type: TypeBoolean, Description: "Whether the item is sold",
				Synonyms: []string{"active", "enabled", "available", "visible", "status"}},
		},
	})
}
