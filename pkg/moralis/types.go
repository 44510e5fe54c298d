package moralis

// TokenMetadataResp ERC20 metadata 接口返回的单个条目
type TokenMetadataResp struct {
	Address          string   `json:"address"`           // 代币合约地址
	AddressLabel     *string  `json:"address_label"`     // 合约标签（可为null）
	Name             string   `json:"name"`              // 代币名称
	Symbol           string   `json:"symbol"`            // 代币符号
	Decimals         string   `json:"decimals"`          // 精度，字符串形式
	Logo             *string  `json:"logo"`              // Logo URL（可为null）
	Thumbnail        *string  `json:"thumbnail"`         // 缩略图 URL（可为null）
	TotalSupply      *string  `json:"total_supply"`      // 总供应量（可为null）
	VerifiedContract bool     `json:"verified_contract"` // 是否为已验证合约
	PossibleSpam     bool     `json:"possible_spam"`     // 是否疑似垃圾代币
	CategoriesList   []string `json:"categories"`        // 分类标签
}
