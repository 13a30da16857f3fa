package domain

// Contact fields appended to an enriched record, before any rule prefix.
const (
	FieldEmail       = "email"
	FieldPhone       = "phone"
	FieldDisplayName = "displayName"
)

// Contact is what the identity directory knows about a person.
type Contact struct {
	// ID is the directory's opaque user id.
	ID          string
	Email       string
	Phone       string
	DisplayName string
}

// IsEmpty reports whether the contact carries no usable contact data.
func (c *Contact) IsEmpty() bool {
	return c == nil || (c.Email == "" && c.Phone == "" && c.DisplayName == "")
}

// NewUser is the payload for provisioning a directory account.
type NewUser struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// EnrichmentRule names the record fields used to find a responsible person
// and the prefix for the contact fields appended to the record.
type EnrichmentRule struct {
	// NameField holds a free-text "Surname Given" name.
	NameField string
	// IDField holds an opaque directory user id (e.g. the record creator).
	IDField string
	// Prefix is prepended to the appended field names.
	Prefix string
}

// Fields returns the names of the contact fields this rule appends.
func (r EnrichmentRule) Fields() []string {
	return []string{r.Prefix + FieldEmail, r.Prefix + FieldPhone, r.Prefix + FieldDisplayName}
}
