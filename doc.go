// Package awhere is a client for the aWhere agronomic and weather API.
//
// A Client authenticates with OAuth2 client credentials and refreshes its
// access token transparently whenever the platform reports it expired, so a
// long-lived Client keeps working across token lifetimes:
//
//	client, err := awhere.NewClient(os.Getenv("AWHERE_KEY"), os.Getenv("AWHERE_SECRET"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	obs, err := client.Weather.Observations(ctx, "field-a", "2023-04-01", "2023-04-30")
//
// Endpoint groups hang off the Client as services: Fields, Plantings,
// Weather, Agronomics and Jobs. Record-shaped resources (fields, plantings,
// jobs, current conditions) decode into typed structs. Series-shaped
// responses (observations, forecasts, norms, agronomic values) come back as
// a *Table: rows in API order, nested objects flattened into dotted column
// names, link subtrees and unit annotations stripped.
//
// Every method validates its parameters before touching the network and
// reports failures as *ValidationError, *AuthError, *APIError or
// *ResponseError, all matchable with errors.As.
//
// A Client is safe for concurrent use. Token refreshes are serialized, and
// goroutines that lose the refresh race reuse the winner's token.
package awhere
