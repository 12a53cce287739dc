package database

import (
	"context"
	"database/sql"
)

// schema lists the DDL statements executed at startup.  Statements are
// idempotent (IF NOT EXISTS) so restarting against an existing database is
// safe.  Fertilizers come before bonsais because bonsais reference them.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INT PRIMARY KEY AUTO_INCREMENT,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		status VARCHAR(50) DEFAULT 'pending' NOT NULL,
		role VARCHAR(50) DEFAULT 'user' NOT NULL,
		foto_perfil VARCHAR(255) DEFAULT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS abonos (
		id INT PRIMARY KEY AUTO_INCREMENT,
		nombre VARCHAR(255) NOT NULL,
		tipo VARCHAR(255),
		observaciones TEXT,
		user_id INT NOT NULL,
		FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS bonsais (
		id INT PRIMARY KEY AUTO_INCREMENT,
		nombre VARCHAR(255),
		especie VARCHAR(255),
		edad INT,
		procedencia VARCHAR(255),
		fecha_ultimo_trabajo DATE,
		foto VARCHAR(255),
		user_id INT NOT NULL,
		abono_id INT,
		FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY(abono_id) REFERENCES abonos(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cuidados_especie (
		id INT PRIMARY KEY AUTO_INCREMENT,
		user_id INT NOT NULL,
		especie VARCHAR(255) NOT NULL,
		descripcion TEXT,
		UNIQUE KEY (user_id, especie),
		FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS trabajos (
		id INT PRIMARY KEY AUTO_INCREMENT,
		tipo_trabajo VARCHAR(255) UNIQUE,
		fecha DATE
	)`,
	`CREATE TABLE IF NOT EXISTS trabajos_bonsai (
		id INT PRIMARY KEY AUTO_INCREMENT,
		bonsai_id INT NOT NULL,
		trabajo_id INT NOT NULL,
		fecha DATE NOT NULL,
		foto_antes VARCHAR(255),
		foto_despues VARCHAR(255),
		observaciones TEXT,
		abono_id INT,
		FOREIGN KEY(bonsai_id) REFERENCES bonsais(id) ON DELETE CASCADE,
		FOREIGN KEY(trabajo_id) REFERENCES trabajos(id),
		FOREIGN KEY(abono_id) REFERENCES abonos(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS procedencias (
		id INT PRIMARY KEY AUTO_INCREMENT,
		nombre VARCHAR(255) UNIQUE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tareas_pendientes (
		id INT PRIMARY KEY AUTO_INCREMENT,
		bonsai_id INT NOT NULL,
		descripcion TEXT NOT NULL,
		completada BOOLEAN DEFAULT false,
		fecha_creacion DATETIME NOT NULL,
		fecha_limite DATE,
		observaciones TEXT,
		FOREIGN KEY(bonsai_id) REFERENCES bonsais(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS macetas (
		id INT PRIMARY KEY AUTO_INCREMENT,
		foto VARCHAR(255),
		ancho DECIMAL(6, 2),
		largo DECIMAL(6, 2),
		profundo DECIMAL(6, 2),
		libre BOOLEAN DEFAULT true,
		bonsai_id INT,
		user_id INT NOT NULL,
		FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY(bonsai_id) REFERENCES bonsais(id) ON DELETE SET NULL
	)`,
}

// EnsureSchema creates any missing tables.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
