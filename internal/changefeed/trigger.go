package changefeed

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

// notifyFunctionSQL creates the trigger function shared by every tracked table.
// NOTIFY rejects payloads of 8000 bytes or more, so wide rows are sent with
// only their id columns and "truncated" set. Any pg_notify failure is raised
// as a warning; the triggering write is never aborted.
const notifyFunctionSQL = `CREATE OR REPLACE FUNCTION %[1]s.realtime_notify() RETURNS trigger AS $$
DECLARE
  payload text;
BEGIN
  payload := json_build_object(
    'eventType', TG_OP,
    'schema', TG_TABLE_SCHEMA,
    'table', TG_TABLE_NAME,
    'new', CASE WHEN TG_OP = 'DELETE' THEN NULL ELSE row_to_json(NEW) END,
    'old', CASE WHEN TG_OP = 'INSERT' THEN NULL ELSE row_to_json(OLD) END
  )::text;

  IF octet_length(payload) >= %[2]d THEN
    payload := json_build_object(
      'eventType', TG_OP,
      'schema', TG_TABLE_SCHEMA,
      'table', TG_TABLE_NAME,
      'truncated', true,
      'new', CASE WHEN TG_OP = 'DELETE' THEN NULL ELSE
        (SELECT json_object_agg(key, value) FROM json_each(row_to_json(NEW))
          WHERE key = 'id' OR key LIKE '%%\_id') END,
      'old', CASE WHEN TG_OP = 'INSERT' THEN NULL ELSE
        (SELECT json_object_agg(key, value) FROM json_each(row_to_json(OLD))
          WHERE key = 'id' OR key LIKE '%%\_id') END
    )::text;
  END IF;

  BEGIN
    PERFORM pg_notify('realtime_' || TG_TABLE_NAME, payload);
  EXCEPTION WHEN OTHERS THEN
    RAISE WARNING 'realtime_notify on %%.%%: %%', TG_TABLE_SCHEMA, TG_TABLE_NAME, SQLERRM;
  END;
  RETURN NULL;
END;
$$ LANGUAGE plpgsql;`

// MaxPayloadBytes is the NOTIFY payload limit of a default postgres build.
const MaxPayloadBytes = 8000

const tableTriggerSQL = `DROP TRIGGER IF EXISTS realtime_notify ON %[1]s;
CREATE TRIGGER realtime_notify AFTER INSERT OR UPDATE OR DELETE ON %[1]s
  FOR EACH ROW EXECUTE FUNCTION %[2]s.realtime_notify();`

// NotifyFunctionSQL returns the DDL for the shared trigger function.
func NotifyFunctionSQL(schema string) string {
	return fmt.Sprintf(notifyFunctionSQL, pgx.Identifier{schema}.Sanitize(), MaxPayloadBytes)
}

// TriggerSQL returns the DDL that makes table publish its row changes.
func TriggerSQL(schema, table string) string {
	return fmt.Sprintf(tableTriggerSQL,
		pgx.Identifier{schema, table}.Sanitize(),
		pgx.Identifier{schema}.Sanitize(),
	)
}
