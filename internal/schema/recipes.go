package schema

func init() {
	Register(Schema{
		ImportType: Recipes,
		Label:      "Recipes",
		Fields: []Field{
			{Name: "recipe_name", Type: TypeString, Required: true, Description: "Recipe or menu item",
				Synonyms: []string{"recipe", "dish", "menu item", "item name", "prep item"}},
			{Name: "ingredient_name", Type: TypeString, Required: true, Description: "Ingredient used",
				Synonyms: []string{"ingredient", "component", "inventory item", "raw item"}},
			{Name: "quantity", Type: TypeDecimal, Required: true, Description: "Ingredient amount",
				Synonyms: []string{"qty", "amount", "ingredient qty", "usage"}},
			{Name: "unit", Type: TypeString, Required: true, Description: "Unit of the quantity",
				Synonyms: []string{"uom", "unit of measure", "measure"}},
			{Name: "yield_quantity", Type: TypeDecimal, Description: "Portions produced",
				Synonyms: []string{"yield", "portions", "servings", "batch size"}},
			{Name: "prep_time_minutes", Type: TypeInteger, Description: "Preparation time",
				Synonyms: []string{"prep time", "prep minutes", "time"}},
			{Name: "cost_per_unit", Type: TypeDecimal, Description: "Ingredient cost per unit",
				Synonyms: []string{"unit cost", "cost", "ingredient cost"}},
			{Name: "instructions", Type: TypeString, Description: "Preparation notes",
				Synonyms: []string{"method", "steps", "notes", "directions"}},
		},
	})
}
