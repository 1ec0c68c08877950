// Package repository define los contratos de dominio consumidos por el core de
// notificaciones: lookup de cuentas, ledger de códigos y proyección de perfil.
//
// Las implementaciones concretas viven en internal/store/{memory,pg,sqlite} y
// internal/cache (proyección memory/redis).
//
//	┌─────────────────────────────────────────────────────┐
//	│   identity.Resolver / ledger.Ledger (services)      │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│        domain/repository (interfaces)               │
//	│  AccountRepository, LedgerRepository, Projector     │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	         ┌──────────────┼──────────────┐
//	         ▼              ▼              ▼
//	┌─────────────┐  ┌─────────────┐  ┌─────────────┐
//	│   memory    │  │     pg      │  │   sqlite    │
//	└─────────────┘  └─────────────┘  └─────────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Errores de dominio están en errors.go
package repository
