package schema

func init() {
	Register(Schema{
		ImportType: Customers,
		Label:      "Customers",
		Fields: []Field{
			{Name: "name", Type: TypeString, Required: true, Description: "Customer full name",
				Synonyms: []string{"customer name", "full name", "guest name", "customer", "guest"}},
			{Name: "customer_id", Type: TypeString, Description: "Identifier in the source POS",
				Synonyms: []string{"customer id", "guest id", "reference id", "id", "member id"}},
			{Name: "email", Type: TypeEmail, Description: "Email address",
				Synonyms: []string{"email address", "e mail", "mail"}},
			{Name: "phone", Type: TypePhone, Description: "Phone number",
				Synonyms: []string{"phone number", "mobile", "cell", "telephone"}},
			{Name: "loyalty_points", Type: TypeInteger, Description: "Loyalty balance",
				Synonyms: []string{"points", "reward points", "loyalty balance"}},
			{Name: "total_spent", Type: TypeDecimal, Description: "Lifetime spend",
				Synonyms: []string{"lifetime spend", "total spend", "lifetime value", "total sales"}},
			{Name: "visit_count", Type: TypeInteger, Description: "Number of visits",
				Synonyms: []string{"visits", "orders", "transaction count", "number of visits"}},
			{Name: "last_visit", Type: TypeDate, Description: "Most recent visit",
				Synonyms: []string{"last visit date", "last seen", "last order", "last transaction"}},
			{Name: "birthday", Type: TypeDate, Description: "Date of birth",
				Synonyms: []string{"birth date", "dob", "date of birth"}},
		},
	})
}
