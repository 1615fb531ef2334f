package app

import "serotonyl.ru/dailypick-bot/internal/db/postgres"

// migrations — схема по версиям. SQL встроен в код для упрощения деплоя.
var migrations = []postgres.Migration{
	{Version: 1, SQL: migration001Players},
	{Version: 2, SQL: migration002Ledger},
	{Version: 3, SQL: migration003Results},
	{Version: 4, SQL: migration004Effects},
	{Version: 5, SQL: migration005Predictions},
	{Version: 6, SQL: migration006Transfers},
	{Version: 7, SQL: migration007FinalVoting},
}

var migration001Players = `
CREATE TABLE IF NOT EXISTS games (
    id BIGSERIAL PRIMARY KEY,
    chat_id BIGINT UNIQUE NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS players (
    user_id BIGINT PRIMARY KEY,
    username VARCHAR(255) NOT NULL DEFAULT '',
    first_name VARCHAR(255) NOT NULL DEFAULT '',
    last_name VARCHAR(255) NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS game_players (
    game_id BIGINT NOT NULL REFERENCES games(id),
    user_id BIGINT NOT NULL REFERENCES players(user_id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (game_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_players_username ON players(LOWER(username));
`

var migration002Ledger = `
CREATE TABLE IF NOT EXISTS ledger_entries (
    id BIGSERIAL PRIMARY KEY,
    operation_id UUID NOT NULL,
    game_id BIGINT NOT NULL REFERENCES games(id),
    user_id BIGINT NOT NULL,
    amount BIGINT NOT NULL CHECK (amount <> 0),
    year INTEGER NOT NULL,
    reason VARCHAR(64) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_ledger_game_user ON ledger_entries(game_id, user_id);
CREATE INDEX IF NOT EXISTS idx_ledger_game_year ON ledger_entries(game_id, year);
CREATE INDEX IF NOT EXISTS idx_ledger_operation ON ledger_entries(operation_id);
`

var migration003Results = `
CREATE TABLE IF NOT EXISTS daily_results (
    game_id BIGINT NOT NULL REFERENCES games(id),
    year INTEGER NOT NULL,
    day INTEGER NOT NULL CHECK (day BETWEEN 1 AND 366),
    winner_id BIGINT NOT NULL,
    original_winner_id BIGINT,
    reroll_initiator_id BIGINT,
    reroll_available BOOLEAN NOT NULL DEFAULT FALSE,
    message_id INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (game_id, year, day)
);
CREATE INDEX IF NOT EXISTS idx_daily_results_winner ON daily_results(game_id, year, winner_id);
CREATE INDEX IF NOT EXISTS idx_daily_results_reroll ON daily_results(created_at) WHERE reroll_available;
`

var migration004Effects = `
CREATE TABLE IF NOT EXISTS player_effects (
    game_id BIGINT NOT NULL REFERENCES games(id),
    user_id BIGINT NOT NULL,
    protected_until_year INTEGER,
    protected_until_day INTEGER,
    protection_bought_at TIMESTAMPTZ,
    amplification_count INTEGER NOT NULL DEFAULT 0 CHECK (amplification_count >= 0),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (game_id, user_id)
);
CREATE TABLE IF NOT EXISTS amplification_purchases (
    id BIGSERIAL PRIMARY KEY,
    game_id BIGINT NOT NULL REFERENCES games(id),
    buyer_id BIGINT NOT NULL,
    target_id BIGINT NOT NULL,
    year INTEGER NOT NULL,
    day INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (game_id, buyer_id, year, day)
);
`

var migration005Predictions = `
CREATE TABLE IF NOT EXISTS predictions (
    id BIGSERIAL PRIMARY KEY,
    game_id BIGINT NOT NULL REFERENCES games(id),
    user_id BIGINT NOT NULL,
    year INTEGER NOT NULL,
    day INTEGER NOT NULL,
    candidates BIGINT[] NOT NULL,
    rewarded_winners BIGINT[] NOT NULL DEFAULT '{}',
    is_correct BOOLEAN,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (game_id, user_id, year, day)
);
CREATE INDEX IF NOT EXISTS idx_predictions_day ON predictions(game_id, year, day);
`

var migration006Transfers = `
CREATE TABLE IF NOT EXISTS coin_transfers (
    id BIGSERIAL PRIMARY KEY,
    game_id BIGINT NOT NULL REFERENCES games(id),
    sender_id BIGINT NOT NULL,
    receiver_id BIGINT NOT NULL,
    amount BIGINT NOT NULL CHECK (amount > 0),
    commission BIGINT NOT NULL CHECK (commission >= 0),
    year INTEGER NOT NULL,
    day INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (game_id, sender_id, year, day)
);
CREATE TABLE IF NOT EXISTS chat_banks (
    game_id BIGINT PRIMARY KEY REFERENCES games(id),
    balance BIGINT NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS bonus_claims (
    game_id BIGINT NOT NULL REFERENCES games(id),
    user_id BIGINT NOT NULL,
    year INTEGER NOT NULL,
    day INTEGER NOT NULL,
    is_winner BOOLEAN NOT NULL DEFAULT FALSE,
    amount BIGINT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (game_id, user_id, year, day)
);
`

var migration007FinalVoting = `
CREATE TABLE IF NOT EXISTS final_votings (
    id BIGSERIAL PRIMARY KEY,
    game_id BIGINT NOT NULL REFERENCES games(id),
    year INTEGER NOT NULL,
    status VARCHAR(16) NOT NULL,
    poll_id TEXT NOT NULL DEFAULT '',
    poll_message_id INTEGER NOT NULL DEFAULT 0,
    started_at TIMESTAMPTZ NOT NULL,
    ended_at TIMESTAMPTZ,
    missed_days INTEGER[] NOT NULL,
    max_choices INTEGER NOT NULL,
    excluded_leaders BIGINT[] NOT NULL DEFAULT '{}',
    version INTEGER NOT NULL DEFAULT 1,
    UNIQUE (game_id, year)
);
CREATE INDEX IF NOT EXISTS idx_final_votings_poll ON final_votings(poll_id) WHERE poll_id <> '';
CREATE TABLE IF NOT EXISTS final_voting_candidates (
    voting_id BIGINT NOT NULL REFERENCES final_votings(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    user_id BIGINT NOT NULL,
    wins INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (voting_id, position)
);
CREATE TABLE IF NOT EXISTS final_voting_ballots (
    voting_id BIGINT NOT NULL REFERENCES final_votings(id) ON DELETE CASCADE,
    voter_id BIGINT NOT NULL,
    candidate_ids BIGINT[] NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (voting_id, voter_id)
);
CREATE TABLE IF NOT EXISTS final_voting_winners (
    voting_id BIGINT NOT NULL REFERENCES final_votings(id) ON DELETE CASCADE,
    rank INTEGER NOT NULL,
    user_id BIGINT NOT NULL,
    score NUMERIC(20, 4) NOT NULL,
    days INTEGER[] NOT NULL DEFAULT '{}',
    PRIMARY KEY (voting_id, rank)
);
`
