package schema

func init() {
	Register(Schema{
		ImportType: Sales,
		Label:      "Sales Transactions",
		Fields: []Field{
			{Name: "transaction_id", Type: TypeString, Required: true, Description: "Transaction or check identifier",
				Synonyms: []string{"transaction id", "receipt number", "order id", "check number", "check id", "ticket", "payment id", "order number"}},
			{Name: "transaction_date", Type: TypeDate, Required: true, Description: "Date or timestamp of sale",
				Synonyms: []string{"date", "time", "datetime", "order date", "sale date", "created at", "opened", "business date"}},
			{Name: "item_name", Type: TypeString, Description: "Item sold",
				Synonyms: []string{"item", "menu item", "product", "description", "item name"}},
			{Name: "quantity", Type: TypeDecimal, Description: "Units sold",
				Synonyms: []string{"qty", "count", "units", "items sold"}},
			{Name: "unit_price", Type: TypeDecimal, Description: "Price per unit",
				Synonyms: []string{"price", "item price", "unit price"}},
			{Name: "total_amount", Type: TypeDecimal, Required: true, Description: "Line or transaction total",
				Synonyms: []string{"total", "amount", "gross sales", "net sales", "net total", "grand total", "total collected", "sales"}},
			{Name: "tax_amount", Type: TypeDecimal, Description: "Tax collected",
				Synonyms: []string{"tax", "sales tax", "taxes"}},
			{Name: "tip_amount", Type: TypeDecimal, Description: "Tips and gratuity",
				Synonyms: []string{"tip", "tips", "gratuity"}},
			{Name: "discount_amount", Type: TypeDecimal, Description: "Discounts applied",
				Synonyms: []string{"discount", "discounts", "comps", "promotions"}},
			{Name: "payment_method", Type: TypeString, Description: "Tender type",
				Synonyms: []string{"payment type", "tender", "card brand", "payment", "tender type"}},
			{Name: "server_name", Type: TypeString, Description: "Employee who rang the sale",
				Synonyms: []string{"server", "employee", "staff", "cashier", "team member"}},
			{Name: "location", Type: TypeString, Description: "Store or location",
				Synonyms: []string{"store", "location name", "site", "restaurant", "device name"}},
		},
	})
}
