package utils

import "fmt"

func TrendingKey(chain string) string {
	return fmt.Sprintf("token_pulse:trending:%s", chain)
}
