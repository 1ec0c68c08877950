// Package notify implementa el Notification Orchestrator: el único punto que
// llama al Delivery Gateway.
//
// Cada Send recorre una máquina de estados lineal:
//
//	Created → Resolved → LanguageSelected → Rendered → Dispatched → {Delivered | Failed}
//
// No hay reintentos ni paralelismo: el resultado del transporte se reporta
// tal cual al caller en Result.
package notify
