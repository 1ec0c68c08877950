// Package logger provee un logger Zap singleton con scoping por contexto.
//
// # Design Decisions
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context Scoping: cada request o invocación del orquestador lleva su propio
//     logger con campos (request_id, kind, recipient) sin crear un nuevo core.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//
// # Usage
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
//	defer logger.Sync()
//
// En services:
//
//	log := logger.From(ctx).With(logger.Op("Orchestrator.Send"))
//	log.Info("notification delivered", logger.Kind(string(kind)))
package logger
