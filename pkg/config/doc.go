// Package config provides configuration management for cmsctl.
//
// Configuration is layered. Later sources win:
//
//   - Built-in defaults
//   - The YAML file cmsctl.yml in CMSCTL_CONFIG_PATH (default /etc/cmsctl)
//   - A .env file (CMSCTL_ENV_FILE, default ./.env), which never overrides
//     variables already present in the environment
//   - Process environment variables
//
// Every attribute remembers which source provided its value, which is what
// "cmsctl configuration show" prints.
//
// # Key Configuration Options
//
//   - PUBLIC_URL: Base URL of the Directus instance
//   - ADMIN_EMAIL / ADMIN_PASSWORD: Admin credentials used by plans
//   - ADMIN_TOKEN: Static token used instead of logging in
//   - PORT / HOST: Listen address handed to Directus
//   - JOURNAL_DATABASE_URL: PostgreSQL database for the run journal
package config
