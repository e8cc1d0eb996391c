// Package sdk is a Go client for the scholarqa HTTP API.
//
// Basic usage:
//
//	client := sdk.New("http://localhost:8080", sdk.WithAPIKey("secret"))
//	resp, err := client.Ask(ctx, sdk.AskRequest{
//		Question: "What is volatility clustering in financial markets?",
//	})
//	if err != nil {
//		// errors.Is(err, sdk.ErrInvalidQuery) etc.
//	}
//	fmt.Println(resp.Answer)
//	for _, src := range resp.Sources {
//		fmt.Println(src.Rank, src.Score)
//	}
package sdk
