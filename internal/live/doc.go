// Package live streams a reconciled document to remote replicas.
//
// A Session owns the server-side tree. Every Render mounts or patches it and
// turns the recorded journal into one mutation batch. A Hub broadcasts those
// batches as protocol frames over WebSocket, sending each new client a
// snapshot first, and a Client replays the stream into its own tree:
//
//	session := live.NewSession(logger)
//	hub := live.NewHub(session, live.HubOptions{Logger: logger})
//	srv := live.NewServer(live.ServerOptions{Addr: ":7331", Hub: hub})
//	go srv.Run(ctx)
//	hub.Render(ctx, view(state))
//
// When a pass fails after it has touched the document, the session resets to
// an empty body and clients receive an error frame followed by a snapshot.
package live
