package addrbook

// Known deployed addresses. Empty entries have no deployment yet and must be
// supplied as overrides.
const (
	tburnPolygon   = "0x005dAd50D38245f764C3C4f127E72acB9b5ebb6B"
	usdcPolygon    = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"
	quickswapMain  = "0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff"
	serviceWallet  = "0x5e1027D4c3e991823Cf30d1f9051E9DB91e2B45C"
	oburnBSC       = "0x76E45C89254907bA5dd6558be3Dd78fD0A0320F3"
	usdcMumbai     = "0xe6b8a5CF854791412c1f6EFC7CAf629f5Df1c747"
	mockUSDCMumbai = "0x7F8754f9CC58A8FfA69C755ae425e84B55bB3a0d"
	mockOBURN      = "0x90a603fa876980B38cB6415C0328aeeC6C33C3f4"
	testPair       = "0xc1A2C05C4FbD1758401c6f11876b5AC741f069C8"
	testRouter     = "0x9Ac64Cc6e4415144C455BD8E4837Fea55603e5c3"
	testBurnSwap   = "0xb14ebE9405B76509cF0b67B6340f5287f7d53F4E"
)

// PresaleExchange feeds OburnTokenPresale and OburnExchange.
var PresaleExchange = Book{
	Name: "presale-exchange",
	Prod: map[Role]string{
		TBURN: tburnPolygon,
		USDC:  usdcPolygon,
	},
	Test: map[Role]string{
		USDC: usdcMumbai,
	},
}

// Token feeds the OnlyBurns token constructor.
var Token = Book{
	Name: "token",
	Prod: map[Role]string{
		Router:        quickswapMain,
		ServiceWallet: serviceWallet,
		USDC:          usdcPolygon,
	},
	Test: map[Role]string{
		USDC: usdcMumbai,
	},
}

// BurnSwapBook feeds the BurnSwap constructor and the burnswap suites.
var BurnSwapBook = Book{
	Name: "burnswap",
	Prod: map[Role]string{
		Router: quickswapMain,
		USDC:   usdcPolygon,
	},
	Test: map[Role]string{
		Router:   testRouter,
		Pair:     testPair,
		OBURN:    mockOBURN,
		USDC:     mockUSDCMumbai,
		BurnSwap: testBurnSwap,
	},
}

// Migration names the token that holder balances are replayed onto.
var Migration = Book{
	Name: "migration",
	Prod: map[Role]string{OBURN: oburnBSC},
	Test: map[Role]string{OBURN: oburnBSC},
}
