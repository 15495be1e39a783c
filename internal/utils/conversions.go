package utils

// ToStringSlice filters a []any down to its string members. Claim values
// decoded from JSON arrive as []any even when the claim is a string array.
func ToStringSlice(slice []any) []string {
	stringSlice := make([]string, 0)
	for _, v := range slice {
		if s, ok := v.(string); ok {
			stringSlice = append(stringSlice, s)
		}
	}
	return stringSlice
}
