package utils

import (
	"strconv"
)

// ==================== SEAT NUMBER ====================

// SeatNumber returns the display code of the n-th seat (1-based) when seats
// are laid out perRow to a row: A1..A10, B1.. for perRow = 10.
// Rows past Z continue as AA, AB, ...
func SeatNumber(n, perRow int) string {
	if perRow <= 0 {
		perRow = 10
	}
	if n < 1 {
		n = 1
	}

	row := (n - 1) / perRow
	col := (n-1)%perRow + 1

	return rowLabel(row) + strconv.Itoa(col)
}

// GenerateSeatNumbers returns the first count seat numbers, in layout order,
// that are not already taken.
func GenerateSeatNumbers(taken []string, count, perRow int) []string {
	used := make(map[string]struct{}, len(taken))
	for _, number := range taken {
		used[number] = struct{}{}
	}

	numbers := make([]string, 0, count)
	for n := 1; len(numbers) < count; n++ {
		number := SeatNumber(n, perRow)
		if _, ok := used[number]; ok {
			continue
		}
		numbers = append(numbers, number)
	}
	return numbers
}

func rowLabel(row int) string {
	label := ""
	for row >= 0 {
		label = string(rune('A'+row%26)) + label
		row = row/26 - 1
	}
	return label
}
