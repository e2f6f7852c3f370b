// Package cli provides the interactive cashier client for the register.
//
// It wires configuration, local storage, the backend client and the sale
// services, then runs a REPL next to the connectivity monitor and the
// reconnect coordinator. The prompt shows whether the register is online and
// how many sales still wait for the server or the operator.
//
// Commands:
//   - scan <barcode>           look an article up
//   - sell <barcode> <method>  sell it for cash, card or check
//   - sales                    merged list of recent sales and running total
//   - pending / conflicts      local records still to be resolved
//   - ack <id> [note...]       acknowledge a conflict or error
//   - sync / prefetch          run a sync pass or refresh the catalog now
//   - status / purge           show sync state, drop old resolved records
//
// The REPL is started via App.Run(ctx), which blocks until the user exits or
// ctx is cancelled.
package cli
