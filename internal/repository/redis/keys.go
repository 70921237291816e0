package redis

import "fmt"

const ns = "parkgo:v1"

func KeyRushWindows() string {
	return ns + ":calendar:rush"
}

func KeyVacationWindows() string {
	return ns + ":calendar:vacations"
}

func KeyGates() string {
	return ns + ":master:gates"
}

func KeyCategories() string {
	return ns + ":master:categories"
}

func RateLimitPrefix(scope string) string {
	return fmt.Sprintf("%s:rl:%s", ns, scope)
}
