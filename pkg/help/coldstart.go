package help

const ColdstartYAML = `# llm-intent-miner Quick Start

input_formats:
  json: "Array of pages, or {\"pages\": [...]}"
  jsonl: "One page object per line"
  yaml: "List of pages, or pages: [...]"
  html_dir: "Directory of saved .html files (use --base-url for URLs)"

page_fields:
  url: "Unique page address (required)"
  title: "Page title (optional)"
  cleaned_text: "Main body text, boilerplate removed"
  section: "Site section (optional, derived from the url path otherwise)"

extraction_modes:
  hybrid: "Pattern + topic model + embeddings (default)"
  pattern: "Library of behavioral intent patterns only"
  dynamic: "Topic model + embedding clustering only"

commands:
  basic_run: |
    llm-intent-miner analyze --input pages.json

  pattern_only: |
    llm-intent-miner analyze --input pages.json --mode pattern

  with_embeddings: |
    llm-intent-miner analyze --input pages.json --embeddings ollama:nomic-embed-text

  offline_embeddings: |
    llm-intent-miner analyze --input pages.json --embeddings hashing

  save_outputs: |
    llm-intent-miner analyze --input pages.json --output intents.json --manifest manifest.yaml

  inline_filter: |
    llm-intent-miner analyze --input pages.json --filter "conf:>=0.5,pages:>=3"

  select_fields: |
    llm-intent-miner analyze --input pages.json --fields name,conf,count

  html_directory: |
    llm-intent-miner analyze --input ./site-dump --base-url https://example.com --english-only

  list_runs: |
    llm-intent-miner db runs

  run_details: |
    llm-intent-miner db run 3f2a9c1e

  query_runs: |
    llm-intent-miner db query --today
    llm-intent-miner db query --degraded
    llm-intent-miner db query --url=/pricing/

  url_history: |
    llm-intent-miner db url https://example.com/pricing

  tune_latest_run: |
    llm-intent-miner tune --input pages.json
    llm-intent-miner tune 3f2a9c1e --output tuning.yaml

config_file:
  extraction_method: "hybrid | pattern | dynamic"
  lda_topics: "Requested topic count (reduced for small corpora)"
  similarity_threshold: "Keyword overlap needed to merge candidates (0-1)"
  min_cluster_size: "Smallest page count an intent may have"
  fallback_keywords: "Enable custom_keywords categories"
  custom_keywords: "category: [keyword, ...]"
  embeddings_model: "'' (off), hashing[:dims], or ollama:<model>"

run_invariants:
  - "Same pages + same config = same intents, in the same order"
  - "A failing method is reported as degraded, never fatal"
  - "Intents sorted by page_count, then confidence"
  - "Every intent has page_count >= min_cluster_size (keyword categories excepted)"
  - "--reuse returns the stored run when the corpus fingerprint matches"

db_commands:
  runs: "List recent runs with stats"
  run_id: "Show methods and intents of a run (id prefix is enough)"
  query: "Filter runs (--today, --degraded, --url=pattern)"
  url: "Intents a page was assigned to across runs"
  init: "Initialize database schema"

tune_report:
  distribution: "Pages and confidence per intent; low confidence (< 0.3) flagged"
  signal_gaps: "Pages of weak intents, keywords no definition pattern matches"
  sections: "Coverage per section; sections without any intent"
  unmatched_terms: "High TF-IDF page terms to add to a definition (needs --input)"
  new_intent_types: "Themes among keywords of intents below 0.4 confidence"

error_behavior:
  - "Invalid config: fail before any page is read"
  - "Invalid pages: skipped with a warning, listed in the manifest"
  - "Degraded methods: logged, run continues with the rest"
`
