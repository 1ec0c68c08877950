// Package email es el Delivery Gateway: valida el mensaje renderizado y el
// destinatario, deriva la versión texto y entrega por un Transport.
//
// Arquitectura:
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                   notify.Orchestrator                           │
//	└───────────────────────────┬─────────────────────────────────────┘
//	                            │ Deliver / BroadcastAdmin
//	                            ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│                        Gateway                                  │
//	│  - ErrInvalidTemplate / ErrInvalidRecipient (antes de I/O)      │
//	│  - HTMLToText si falta Text                                     │
//	│  - fallas de transporte -> DeliveryOutcome{Success:false}       │
//	└───────────────────────────┬─────────────────────────────────────┘
//	                            │ Transport.Send(ctx, Envelope)
//	                            ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│            SMTPTransport (go-mail) | LogTransport (dev)          │
//	└─────────────────────────────────────────────────────────────────┘
package email
