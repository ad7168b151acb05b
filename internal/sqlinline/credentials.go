package sqlinline

const QSelectCredential = `--sql 3f6a1c9e-5b42-4e8d-9c01-7a2f84d6b510
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertCredential = `--sql b82d4e07-1c3a-4f56-a9e2-0d5c6f718294
insert into integration_tokens (id, provider, token, updated_at)
values (gen_random_uuid(), $1::text, $2::text, now())
on conflict (provider) do update set
    token = excluded.token,
    updated_at = now();
`
