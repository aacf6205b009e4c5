package core

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	negative := n < 0
	if negative {
		n = -n
	}

	// Count digits
	temp := n
	digits := 0
	for temp > 0 {
		digits++
		temp /= 10
	}

	// Add space for negative sign
	if negative {
		digits++
	}

	// Build string from right to left
	buf := make([]byte, digits)
	pos := digits - 1

	for n > 0 {
		buf[pos] = byte('0' + n%10)
		n /= 10
		pos--
	}

	if negative {
		buf[0] = '-'
	}

	return string(buf)
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	return utoa64(uint64(n))
}

func utoa64(n uint64) string {
	if n == 0 {
		return "0"
	}

	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// ftoa formats v with a fixed number of decimals, rounding half up.
// decimals is capped at 9.
func ftoa(v float32, decimals int) string {
	if decimals > 9 {
		decimals = 9
	}
	negative := v < 0
	if negative {
		v = -v
	}

	scale := uint64(1)
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	scaled := uint64(float64(v)*float64(scale) + 0.5)

	s := utoa64(scaled / scale)
	if decimals > 0 {
		frac := utoa64(scaled % scale)
		for len(frac) < decimals {
			frac = "0" + frac
		}
		s += "." + frac
	}
	if negative && scaled != 0 {
		s = "-" + s
	}
	return s
}

// tenthsToString renders a value in tenths as "-50.0"
func tenthsToString(t int32) string {
	negative := t < 0
	if negative {
		t = -t
	}
	s := itoa(int(t/10)) + "." + string(byte('0'+t%10))
	if negative {
		s = "-" + s
	}
	return s
}
