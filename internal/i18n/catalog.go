package i18n

var catalogs = map[string]map[string]string{
	Swedish: {
		// field violations
		"required":     "måste fyllas i",
		"invalid":      "är ogiltigt",
		"wrong_length": "har fel längd",
		"taken":        "används redan",
		"inclusion":    "finns inte i listan",
		"mail_taken":   "Post används redan",

		// field names
		"field.company_number":        "Organisationsnummer",
		"field.contact_email":         "E-post",
		"field.user_id":               "Användare",
		"field.country":               "Land",
		"field.visibility":            "Synlighet",
		"field.mail":                  "Post",
		"field.addressable":           "Ägare",
		"field.payment_type":          "Betalningstyp",
		"field.custom_reason_text":    "Annan orsak",
		"field.waiting_reason_id":     "Väntar på",
		"field.business_category_ids": "Verksamhetskategorier",
		"field.company_id":            "Företag",
		"field.region_id":             "Län",
		"field.kommun_id":             "Kommun",
		"field.status":                "Status",
		"field.hips_id":               "Order",

		// errors
		"VALIDATION_FAILED":  "Uppgifterna kunde inte sparas",
		"INVALID_TRANSITION": "Åtgärden {{.event}} kan inte utföras när ansökan har status {{.state}}",
		"GUARD_REJECTED":     "Åtgärden {{.event}} är inte tillåten: {{.reason}}",
		"EXTERNAL_SERVICE":   "En extern tjänst svarade inte ({{.service}})",
		"NOT_FOUND":          "Hittades inte",
		"UNAUTHORIZED":       "Du har inte behörighet",
		"UNKNOWN":            "Ett oväntat fel inträffade",

		"guard.already_member": "användaren är redan medlem",
		"guard.user_missing":   "ansökan saknar användare",

		// application states
		"state.new":                   "Ny",
		"state.under_review":          "Under handläggning",
		"state.waiting_for_applicant": "Väntar på sökande",
		"state.ready_for_review":      "Klar för handläggning",
		"state.accepted":              "Godkänd",
		"state.rejected":              "Avböjd",

		// payment statuses (stored values are Swedish)
		"payment.skapad":              "skapad",
		"payment.avvaktan":            "avvaktan",
		"payment.betald":              "betald",
		"payment.utgånget":            "utgånget",
		"payment.Väntar på betalning": "Väntar på betalning",
		"payment.unknown":             "okänd",
	},
	English: {
		"required":     "can't be blank",
		"invalid":      "is invalid",
		"wrong_length": "is the wrong length",
		"taken":        "has already been taken",
		"inclusion":    "is not included in the list",
		"mail_taken":   "Mail is already in use",

		"field.company_number":        "Company number",
		"field.contact_email":         "Email",
		"field.user_id":               "User",
		"field.country":               "Country",
		"field.visibility":            "Visibility",
		"field.mail":                  "Mail",
		"field.addressable":           "Owner",
		"field.payment_type":          "Payment type",
		"field.custom_reason_text":    "Other reason",
		"field.waiting_reason_id":     "Waiting for",
		"field.business_category_ids": "Business categories",
		"field.company_id":            "Company",
		"field.region_id":             "Region",
		"field.kommun_id":             "Kommun",
		"field.status":                "Status",
		"field.hips_id":               "Order",

		"VALIDATION_FAILED":  "The record could not be saved",
		"INVALID_TRANSITION": "Cannot {{.event}} an application that is {{.state}}",
		"GUARD_REJECTED":     "{{.event}} is not allowed: {{.reason}}",
		"EXTERNAL_SERVICE":   "An external service failed ({{.service}})",
		"NOT_FOUND":          "Not found",
		"UNAUTHORIZED":       "You are not authorized",
		"UNKNOWN":            "An unexpected error occurred",

		"guard.already_member": "the user is already a member",
		"guard.user_missing":   "the application has no user",

		"state.new":                   "New",
		"state.under_review":          "Under review",
		"state.waiting_for_applicant": "Waiting for applicant",
		"state.ready_for_review":      "Ready for review",
		"state.accepted":              "Accepted",
		"state.rejected":              "Rejected",

		"payment.skapad":              "created",
		"payment.avvaktan":            "pending",
		"payment.betald":              "paid",
		"payment.utgånget":            "expired",
		"payment.Väntar på betalning": "awaiting payment",
		"payment.unknown":             "unknown",
	},
}
