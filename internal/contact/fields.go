package contact

// Field identifies one editable structured field on a contact. The order of
// Fields is the canonical display and export order.
type Field string

const (
	FieldFirstName     Field = "First Name"
	FieldLastName      Field = "Last Name"
	FieldCompany       Field = "Company"
	FieldJobTitle      Field = "Job Title"
	FieldEmail         Field = "E-mail Address"
	FieldMobilePhone   Field = "Mobile Phone"
	FieldBusinessPhone Field = "Business Phone"
	FieldAddress       Field = "Address"
	FieldWebsite       Field = "Web Page"
)

// Fields lists every editable field in display order.
var Fields = []Field{
	FieldFirstName,
	FieldLastName,
	FieldCompany,
	FieldJobTitle,
	FieldEmail,
	FieldMobilePhone,
	FieldBusinessPhone,
	FieldAddress,
	FieldWebsite,
}

// Get returns the current value of the named field.
func (c *Contact) Get(f Field) string {
	switch f {
	case FieldFirstName:
		return c.FirstName
	case FieldLastName:
		return c.LastName
	case FieldCompany:
		return c.Company
	case FieldJobTitle:
		return c.JobTitle
	case FieldEmail:
		return c.Email
	case FieldMobilePhone:
		return c.MobilePhone
	case FieldBusinessPhone:
		return c.BusinessPhone
	case FieldAddress:
		return c.Address
	case FieldWebsite:
		return c.Website
	}
	return ""
}

// Set assigns the named field. Unknown fields are ignored so stale column
// configurations cannot corrupt a record.
func (c *Contact) Set(f Field, value string) {
	switch f {
	case FieldFirstName:
		c.FirstName = value
	case FieldLastName:
		c.LastName = value
	case FieldCompany:
		c.Company = value
	case FieldJobTitle:
		c.JobTitle = value
	case FieldEmail:
		c.Email = value
	case FieldMobilePhone:
		c.MobilePhone = value
	case FieldBusinessPhone:
		c.BusinessPhone = value
	case FieldAddress:
		c.Address = value
	case FieldWebsite:
		c.Website = value
	}
}
