// Package matdex provides a Go client for materials-science search
// APIs in the NOMAD style: a typed filter registry, a search-bar
// expression parser, fluent one-shot queries and long-lived search
// sessions with URL persistence.
//
// # One-shot queries
//
//	client, _ := matdex.New(ctx,
//	    matdex.WithBaseURL("https://nomad-lab.eu/prod/v1/api/v1"),
//	)
//	res, _ := client.Search(matdex.Entries).
//	    Where("elements", "Si,O").
//	    Expr("band_gap > 0.5").
//	    OrderBy("upload_create_time", matdex.Desc).
//	    Aggregate("crystal_system").
//	    Do(ctx)
//
// # Sessions — state for a search view
//
// A Session owns the query, pagination and selection of one result
// list. Setters coalesce into a single fetch; stale responses are
// dropped; the current state round-trips through URL parameters.
//
//	sess, _ := client.NewSession(matdex.SessionConfig{
//	    Resource:     matdex.Entries,
//	    Aggregations: []string{"elements"},
//	    OnUpdate:     func(s matdex.Snapshot) { render(s) },
//	})
//	go sess.Run(ctx)
//	_ = sess.Set("elements", "Si")
//	params, _ := sess.EncodeURL()
package matdex
