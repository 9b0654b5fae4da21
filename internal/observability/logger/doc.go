// Package logger provee el logger Zap del broker con scoping por contexto.
//
// # Design Decisions
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context Scoping: cada operación puede llevar un logger "scoped" con campos
//     (realm, authority, provider_id) sin crear un nuevo core.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//
// # Usage
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.ProviderID(id))
//	log.Warn("provider build failed", logger.Err(err))
package logger
