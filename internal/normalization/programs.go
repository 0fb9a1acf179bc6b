package normalization

// Known AMM program IDs. A transaction touching one of these is
// classified as a swap even without a provider-parsed swap payload.
const (
	RaydiumAMMV4   = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	RaydiumCLMM    = "CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"
	OrcaWhirlpool  = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"
	JupiterV6      = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
	PumpFun        = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	MeteoraDLMM    = "LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo"
	LifinityV2     = "2wT8Yq49kHgDzXuPxZSaeLaH1qbmGXtEyPy64bL7aD3c"
	PhoenixV1      = "PhoeNiXZ8ByJGLkxNfZRnkUfjvmuYqLR89jjFHGqdXY"
)

// DefaultAMMPrograms is the default swap-classification allow-list.
func DefaultAMMPrograms() map[string]struct{} {
	return map[string]struct{}{
		RaydiumAMMV4:  {},
		RaydiumCLMM:   {},
		OrcaWhirlpool: {},
		JupiterV6:     {},
		PumpFun:       {},
		MeteoraDLMM:   {},
		LifinityV2:    {},
		PhoenixV1:     {},
	}
}
