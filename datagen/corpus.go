package datagen

// Fixed corpora backing the pattern rules. Values are stable so downstream
// assertions and recorded runs stay reproducible across releases.

var emailDomains = []string{
	"example.com", "test.org", "demo.net", "sample.io",
	"gmail.com", "yahoo.com", "outlook.com", "hotmail.com",
}

var urlDomains = []string{"example.com", "test.org", "demo.net"}

var firstNames = []string{
	"James", "Mary", "John", "Patricia", "Robert", "Jennifer",
	"Michael", "Linda", "David", "Elizabeth", "William", "Barbara",
	"Richard", "Susan", "Joseph", "Jessica", "Thomas", "Sarah",
	"Charles", "Karen", "Christopher", "Nancy", "Daniel", "Lisa",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia",
	"Miller", "Davis", "Rodriguez", "Martinez", "Hernandez", "Lopez",
	"Gonzalez", "Wilson", "Anderson", "Thomas", "Taylor", "Moore",
}

var cities = []string{
	"New York", "Los Angeles", "Chicago", "Houston", "Phoenix",
	"Philadelphia", "San Antonio", "San Diego", "Dallas", "San Jose",
	"Austin", "Jacksonville", "Fort Worth", "Columbus", "Charlotte",
}

var states = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
}

var streetNames = []string{"Main", "Oak", "Park", "First"}

var companies = []string{"Tech Corp", "Data Systems", "Web Solutions", "Digital Inc"}

// Malformed email shapes: missing "@", missing local part, missing domain,
// missing TLD, embedded space, doubled dot.
var invalidEmails = []string{
	"invalid.email",
	"@domain.com",
	"user@",
	"user@domain",
	"user name@domain.com",
	"user@domain..com",
}

// Minimal/maximal-but-valid email shapes.
var edgeEmails = []string{
	"a@b.co",
	"very.long.email.address.that.is.still.valid@extremely.long.domain.name.example.com",
	"user+tag@domain.com",
	"user.123@domain-with-hyphens.org",
}

var validPhones = []string{
	"(555) 123-4567",
	"555-123-4567",
	"555.123.4567",
	"+1 555 123 4567",
	"5551234567",
}

// Malformed phone shapes: too short, alphabetic, wrong grouping, incomplete.
var invalidPhones = []string{
	"123",
	"abc-def-ghij",
	"555-123-456",
	"(555) 123-456",
}

var fileExtensions = []string{".jpg", ".png", ".pdf", ".txt", ".doc"}

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789" +
	"!@#$%^&*"
