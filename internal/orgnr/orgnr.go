// Package orgnr validates Swedish organisation numbers (organisationsnummer).
//
// A number is ten digits. The third digit is always 2 or higher for legal
// entities, which keeps them apart from personal identity numbers, and the
// last digit is a Luhn (mod 10) check digit over the first nine.
package orgnr

// Length is the number of digits in an organisation number.
const Length = 10

// Valid reports whether number is a well-formed organisation number.
// The input is not normalised: separators or surrounding spaces make it invalid.
func Valid(number string) bool {
	if len(number) != Length {
		return false
	}
	for i := 0; i < Length; i++ {
		if number[i] < '0' || number[i] > '9' {
			return false
		}
	}
	if number[2] < '2' {
		return false
	}
	return luhn(number)
}

// CheckDigit returns the Luhn check digit for the first nine digits of prefix.
// It returns -1 when prefix is not nine digits.
func CheckDigit(prefix string) int {
	if len(prefix) != Length-1 {
		return -1
	}
	sum := 0
	for i := 0; i < Length-1; i++ {
		c := prefix[i]
		if c < '0' || c > '9' {
			return -1
		}
		sum += weigh(int(c-'0'), i)
	}
	return (10 - sum%10) % 10
}

func luhn(number string) bool {
	sum := 0
	for i := 0; i < Length; i++ {
		sum += weigh(int(number[i]-'0'), i)
	}
	return sum%10 == 0
}

// weigh doubles digits at even positions, counted from the left, and folds
// two-digit products back into a single digit.
func weigh(d, pos int) int {
	if pos%2 == 0 {
		d *= 2
		if d > 9 {
			d -= 9
		}
	}
	return d
}
