// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse resolves the service configuration.

# Sources

Settings are checked in priority order:

 1. command-line flags (NewFlagSet, shared with the cobra commands)
 2. environment variables, after loading the dotenv file (--env-file)
 3. <meta name="..."> tags of an HTML page (--meta-file), for static
    hosting where nothing injects env variables at build time
 4. development fallbacks, skipped when PRODUCTION=true

# Keys

  - PORT (-p), DATABASE_URL (-d), DATABASE_TYPE (-t)
  - ADMIN_KEY_SALT (--admin-salt): secret for admin keys
  - GOOGLE_SHEETS_API_KEY, GOOGLE_SHEETS_ID, GOOGLE_SHEETS_NAME
  - GOOGLE_APPS_SCRIPT_URL
  - SHEETS_TRANSPORT: direct, proxy, serverless or auto
  - PROXY_URL, SERVERLESS_URL
  - USER_TYPES: "MEP:sacerdote,JLG:residente"

A Config without sheet credentials is valid: the service then runs in
local-only mode and MissingSheetSettings names what is absent.
*/
package cliparse
